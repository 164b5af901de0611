package mappers

// strPtr maps an empty string to NULL so unique and lookup indexes never
// collide on "".
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
