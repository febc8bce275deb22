package domain

import "strings"

// Module is one EASA Part 66 module, e.g. "3 Basic Electricity".
type Module struct {
	ID          string      `json:"id"`
	Number      string      `json:"number"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	SubModules  []SubModule `json:"subModules,omitempty"`
}

// SubModule is a topic inside a module, e.g. "3.1 Electron Theory".
type SubModule struct {
	ID       string `json:"id"`
	ModuleID string `json:"moduleId"`
	Number   string `json:"number"`
	Title    string `json:"title"`
}

// ModuleID derives the canonical identifier of the module with the given number.
func ModuleID(number string) string {
	return "module-" + strings.ToLower(strings.TrimSpace(number))
}

// SubModuleID derives the canonical identifier of a sub-module from its number.
func SubModuleID(number string) string {
	return "submodule-" + strings.ToLower(strings.TrimSpace(number))
}

// ModuleNumber extracts the module number from an identifier, a "module-N"
// slug or a bare number. It returns "" when ref looks like neither.
func ModuleNumber(ref string) string {
	ref = strings.TrimSpace(ref)
	if n, ok := strings.CutPrefix(strings.ToLower(ref), "module-"); ok {
		return strings.ToUpper(n)
	}
	if ref != "" && ref[0] >= '0' && ref[0] <= '9' {
		return strings.ToUpper(ref)
	}
	return ""
}
