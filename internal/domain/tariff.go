package domain

// Tariff is a purchasable pricing option. Text is the display line
// snapshotted into the order record at creation time.
type Tariff struct {
	Key  string `yaml:"key"`
	Text string `yaml:"text"`
}

// Catalog is an ordered tariff list; order drives keyboard layout.
type Catalog []Tariff

// Get returns the tariff with the given key.
func (c Catalog) Get(key string) (Tariff, bool) {
	for _, t := range c {
		if t.Key == key {
			return t, true
		}
	}
	return Tariff{}, false
}

// DefaultCatalog returns the built-in pricing tiers used when the
// config file does not override them.
func DefaultCatalog() Catalog {
	return Catalog{
		{Key: "1_day", Text: "1 day — 20₴"},
		{Key: "30_days", Text: "30 days — 70₴"},
		{Key: "90_days", Text: "90 days — 150₴"},
		{Key: "180_days", Text: "180 days — 190₴"},
		{Key: "forever", Text: "Lifetime — 250₴"},
	}
}
