/*
Package piece defines the catalog model searched by piece-hub.

A piece is one integration (Slack, Google Sheets, ...) with a display name,
a description, category tags and two ordered sets of named capabilities:
actions and triggers. Pieces are read-only input to the search engine; they
are supplied by a catalog (see LoadCatalog) for the duration of one call.
*/
package piece

// Category is an opaque category tag. Tags are compared by equality only.
type Category string

// Known category tags. The engine never validates membership; the list is
// used for help output and the categories command.
const (
	CategoryArtificialIntelligence Category = "ARTIFICIAL_INTELLIGENCE"
	CategoryCommunication          Category = "COMMUNICATION"
	CategoryCommerce               Category = "COMMERCE"
	CategoryCore                   Category = "CORE"
	CategoryUniversalAI            Category = "UNIVERSAL_AI"
	CategoryFlowControl            Category = "FLOW_CONTROL"
	CategoryBusinessIntelligence   Category = "BUSINESS_INTELLIGENCE"
	CategoryAccounting             Category = "ACCOUNTING"
	CategoryProductivity           Category = "PRODUCTIVITY"
	CategoryContentAndFiles        Category = "CONTENT_AND_FILES"
	CategoryDeveloperTools         Category = "DEVELOPER_TOOLS"
	CategoryCustomerSupport        Category = "CUSTOMER_SUPPORT"
	CategoryForms                  Category = "FORMS_AND_SURVEYS"
	CategoryHumanResources         Category = "HUMAN_RESOURCES"
	CategoryPaymentProcessing      Category = "PAYMENT_PROCESSING"
	CategoryMarketing              Category = "MARKETING"
	CategorySales                  Category = "SALES_AND_CRM"
)

// KnownCategories lists the category vocabulary in display order.
var KnownCategories = []Category{
	CategoryArtificialIntelligence,
	CategoryCommunication,
	CategoryCommerce,
	CategoryCore,
	CategoryUniversalAI,
	CategoryFlowControl,
	CategoryBusinessIntelligence,
	CategoryAccounting,
	CategoryProductivity,
	CategoryContentAndFiles,
	CategoryDeveloperTools,
	CategoryCustomerSupport,
	CategoryForms,
	CategoryHumanResources,
	CategoryPaymentProcessing,
	CategoryMarketing,
	CategorySales,
}

// Capability is a named, described sub-entity of a piece.
// Action and Trigger are the two implementations.
type Capability interface {
	GetName() string
	GetDisplayName() string
	GetDescription() string
}

// Action is an operation a piece can perform.
type Action struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description" yaml:"description"`
}

func (a Action) GetName() string        { return a.Name }
func (a Action) GetDisplayName() string { return a.DisplayName }
func (a Action) GetDescription() string { return a.Description }

// Trigger is an event source a piece exposes.
type Trigger struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description" yaml:"description"`
}

func (t Trigger) GetName() string        { return t.Name }
func (t Trigger) GetDisplayName() string { return t.DisplayName }
func (t Trigger) GetDescription() string { return t.Description }

// Actions is the ordered action mapping of a piece.
type Actions = Capabilities[Action]

// Triggers is the ordered trigger mapping of a piece.
type Triggers = Capabilities[Trigger]

// Piece is one catalog entry.
type Piece struct {
	// ID uniquely identifies the piece within a catalog.
	ID string `json:"id" yaml:"id"`

	// Name is the package name (e.g., "@activepieces/piece-slack").
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description" yaml:"description"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`

	// Categories may be empty; an uncategorized piece never matches a
	// category filter.
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`

	Actions  Actions  `json:"actions" yaml:"actions"`
	Triggers Triggers `json:"triggers" yaml:"triggers"`
}

// HasAnyCategory reports whether the piece carries at least one of the
// given categories.
func (p *Piece) HasAnyCategory(categories []Category) bool {
	for _, want := range categories {
		for _, have := range p.Categories {
			if have == want {
				return true
			}
		}
	}
	return false
}
