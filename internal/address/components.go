package address

import "github.com/sells-group/fias-importer/internal/model"

// Components splits an address chain into named levels.
type Components struct {
	Region   string `json:"region,omitempty"`
	Autonomy string `json:"autonomy,omitempty"`
	Area     string `json:"area,omitempty"`
	City     string `json:"city,omitempty"`
	CityArea string `json:"city_area,omitempty"`
	Place    string `json:"place,omitempty"`
	Street   string `json:"street,omitempty"`
	Extra    string `json:"extra,omitempty"`
	SubExtra string `json:"sub_extra,omitempty"`
}

// ComponentsOf assigns each chain node to the field of its level. Nodes with
// levels outside the classifier are ignored.
func ComponentsOf(chain []*model.AddrObj) Components {
	var c Components
	for _, node := range chain {
		if f := c.field(node.Level); f != nil && *f == "" {
			*f = node.String()
		}
	}
	return c
}

func (c *Components) field(l model.Level) *string {
	switch l {
	case model.LevelRegion:
		return &c.Region
	case model.LevelAutonomy:
		return &c.Autonomy
	case model.LevelArea:
		return &c.Area
	case model.LevelCity:
		return &c.City
	case model.LevelCityArea:
		return &c.CityArea
	case model.LevelPlace:
		return &c.Place
	case model.LevelStreet:
		return &c.Street
	case model.LevelExtra:
		return &c.Extra
	case model.LevelSubExtra:
		return &c.SubExtra
	default:
		return nil
	}
}
