package database

const (
	SortIDAsc   = "id"
	SortNameAsc = "name"
	SortNameNat = "name_nat"
)

const DefaultSortOrder = SortIDAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortIDAsc, SortNameAsc, SortNameNat:
		return true
	default:
		return false
	}
}
