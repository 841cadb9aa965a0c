// Package catalog defines the catalog entity model shared by the HTTP API,
// the queue consumer and the store, plus the canonicalization logic that
// turns an entity into deterministic embedding input.
package catalog

// Image is a sub-item illustration reference.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Attribute is a typed key/value pair attached to an entity or sub-item.
//
// Two incompatible encodings exist on the wire. The HTTP path sends typed
// fields (stringValue/numberValue/booleanValue/dateValue, exactly one
// populated); some queue producers send a declared pair (type + value)
// instead. Both sets of fields live on this struct and Resolve dispatches
// on whichever is present.
type Attribute struct {
	ID         string  `json:"id,omitempty"`
	TemplateID *string `json:"templateId,omitempty"`
	Name       string  `json:"name"`
	DataType   string  `json:"dataType,omitempty"`

	StringValue  *string  `json:"stringValue,omitempty"`
	NumberValue  *float64 `json:"numberValue,omitempty"`
	BooleanValue *bool    `json:"booleanValue,omitempty"`
	DateValue    *string  `json:"dateValue,omitempty"`

	// Declared shape, queue path only.
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID         string      `json:"id"`
	SKU        string      `json:"sku"`
	Price      float64     `json:"price"`
	Stock      int         `json:"stock"`
	Images     []Image     `json:"images"`
	Attributes []Attribute `json:"attributes"`
}

// Package is a purchasable tier of a service.
type Package struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Price       float64     `json:"price"`
	Description string      `json:"description"`
	Images      []Image     `json:"images"`
	Attributes  []Attribute `json:"attributes"`
}

// Product is a sellable good with variants. ID is caller-assigned and is the
// sole identity key: re-ingesting the same id fully replaces the stored
// document and its embedding.
type Product struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Barcode      string      `json:"barcode,omitempty"`
	Description  string      `json:"description"`
	BasePrice    float64     `json:"basePrice"`
	CategoryName string      `json:"categoryName"`
	Brand        string      `json:"brand,omitempty"`
	Tags         []string    `json:"tags"`
	Variants     []Variant   `json:"variants"`
	Attributes   []Attribute `json:"attributes"`
}

// Service is a sellable service with packages.
type Service struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	BasePrice    float64     `json:"basePrice"`
	CategoryName string      `json:"categoryName"`
	Tags         []string    `json:"tags"`
	Packages     []Package   `json:"packages"`
	Attributes   []Attribute `json:"attributes"`
}
