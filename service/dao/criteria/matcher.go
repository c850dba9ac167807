package criteria

import (
	"github.com/scriptoria/gatekeeper/service/dao"
)

// FilterByStatus reports whether a record with the given status passes the
// supplied list parameters.  A missing or unrelated parameter set matches
// everything so that List without filters stays a full scan.
func FilterByStatus(status string, parameters []*dao.Parameter) bool {
	switch len(parameters) {
	case 0:
		return true
	case 1:
		if parameters[0].Name == "Status" {
			switch actual := parameters[0].Value.(type) {
			case string:
				return status == actual
			case []string:
				for _, s := range actual {
					if status == s {
						return true
					}
				}
				return false
			}
		}
	}
	return true
}
