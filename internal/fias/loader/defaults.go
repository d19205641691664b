package loader

// Built-in loaders serve both the full and the delta variant of each table.
func init() {
	RegisterSet(DefaultSet, Set{
		"addrobj":        NewAddrObj,
		"delta_addrobj":  NewAddrObj,
		"house":          NewHouse,
		"delta_house":    NewHouse,
		"socrbase":       NewSocrBase,
		"delta_socrbase": NewSocrBase,
		"normdoc":        NewNormDoc,
		"delta_normdoc":  NewNormDoc,
	})
}
