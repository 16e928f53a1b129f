package profile

// Per-role store instances share a shape but never a record.
const (
	RoleGuardian = "guardian"
	RoleChild    = "child"
	RoleTutor    = "tutor"
)

// Defaults returns the default-empty record for a role. Reset restores this
// shape so a fresh flow never inherits a previous record's identifier.
func Defaults(role string) Record {
	switch role {
	case RoleChild:
		return Record{
			"childId":   "",
			"firstName": "",
			"lastName":  "",
			"about":     "",
			"age":       float64(0),
			"interests": []interface{}{},
			"avatarUrl": "",
		}
	case RoleTutor:
		return Record{
			"_id":         "",
			"firstName":   "",
			"lastName":    "",
			"email":       "",
			"phoneNumber": "",
			"city":        "",
			"state":       "",
			"bio":         "",
			"subjects":    []interface{}{},
			"levels":      []interface{}{},
			"rate":        map[string]interface{}{"min": float64(0), "max": float64(0)},
			"avatarUrl":   "",
		}
	default: // guardian
		return Record{
			"_id":          "",
			"firstName":    "",
			"lastName":     "",
			"email":        "",
			"phoneNumber":  "",
			"city":         "",
			"state":        "",
			"relationship": "",
			"avatarUrl":    "",
		}
	}
}
