package models

// Product is what the product profile extracts from a captured page.
type Product struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	ImageName   string `json:"image_name"`
}

// Data returns the product as response data, fields in a fixed order.
func (p *Product) Data() *Data {
	d := NewData()
	d.Set("name", p.Name)
	d.Set("slug", p.Slug)
	d.Set("description", p.Description)
	d.Set("price", p.Price)
	d.Set("image_url", p.ImageURL)
	d.Set("image_name", p.ImageName)
	return d
}
