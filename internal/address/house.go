package address

import (
	"strconv"

	"github.com/sells-group/fias-importer/internal/model"
)

// FullAddress appends the house number and corps to the cached full address.
func FullAddress(info model.AddressInfo, house model.House) string {
	return withHouse(info.Full, house)
}

// ShortAddress is FullAddress over the short form, falling back to the full
// address when no short form was derived.
func ShortAddress(info model.AddressInfo, house model.House) string {
	addr := info.Short
	if addr == "" {
		addr = info.Full
	}
	return withHouse(addr, house)
}

func withHouse(addr string, house model.House) string {
	if house.House != nil && *house.House != 0 {
		addr += separator + strconv.Itoa(*house.House)
	}
	if house.Corps != "" {
		addr += house.Corps
	}
	return addr
}
