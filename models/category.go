package models

// Categories a post may be filed under.
var Categories = []string{
	"Agriculture",
	"Business",
	"Education",
	"Art",
	"Entertainment",
	"Uncategorized",
}

// ValidCategory reports whether name is one of Categories. Matching is exact.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
