package domain

import "encoding/json"

// Module identifies a console area that can be gated independently.
type Module string

// Action identifies an operation within a Module.
type Action string

const (
	ModuleOrders    Module = "orders"
	ModuleCustomers Module = "customers"
	ModuleBranches  Module = "branches"
	ModuleServices  Module = "services"
	ModulePricing   Module = "pricing"
	ModulePayments  Module = "payments"
	ModuleTickets   Module = "tickets"
	ModuleReports   Module = "reports"
	ModuleStaff     Module = "staff"
	ModuleSettings  Module = "settings"
)

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionRefund Action = "refund"
	ActionAssign Action = "assign"
)

var knownModules = map[Module]struct{}{
	ModuleOrders: {}, ModuleCustomers: {}, ModuleBranches: {}, ModuleServices: {},
	ModulePricing: {}, ModulePayments: {}, ModuleTickets: {}, ModuleReports: {},
	ModuleStaff: {}, ModuleSettings: {},
}

var knownActions = map[Action]struct{}{
	ActionView: {}, ActionCreate: {}, ActionUpdate: {}, ActionDelete: {},
	ActionExport: {}, ActionRefund: {}, ActionAssign: {},
}

// Modules lists every known module in sidebar order.
func Modules() []Module {
	return []Module{
		ModuleOrders, ModuleCustomers, ModuleBranches, ModuleServices, ModulePricing,
		ModulePayments, ModuleTickets, ModuleReports, ModuleStaff, ModuleSettings,
	}
}

// ParseModule reports whether s names a known module.
func ParseModule(s string) (Module, bool) {
	m := Module(s)
	_, ok := knownModules[m]
	return m, ok
}

// ParseAction reports whether s names a known action.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := knownActions[a]
	return a, ok
}

// CapabilityMatrix maps module → action → granted.
type CapabilityMatrix map[Module]map[Action]bool

// ParseCapabilityMatrix converts a loosely typed matrix into a CapabilityMatrix,
// dropping every module or action outside the known sets. A nil input yields a
// nil matrix.
func ParseCapabilityMatrix(raw map[string]map[string]bool) CapabilityMatrix {
	if raw == nil {
		return nil
	}
	out := make(CapabilityMatrix, len(raw))
	for ms, actions := range raw {
		m, ok := ParseModule(ms)
		if !ok {
			continue
		}
		row := make(map[Action]bool, len(actions))
		for as, granted := range actions {
			if a, ok := ParseAction(as); ok {
				row[a] = granted
			}
		}
		out[m] = row
	}
	return out
}

// Allows reports whether action a on module m is explicitly granted.
func (c CapabilityMatrix) Allows(m Module, a Action) bool {
	return c[m][a]
}

// AnyIn reports whether at least one action on m is granted.
func (c CapabilityMatrix) AnyIn(m Module) bool {
	for _, granted := range c[m] {
		if granted {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c CapabilityMatrix) Clone() CapabilityMatrix {
	if c == nil {
		return nil
	}
	out := make(CapabilityMatrix, len(c))
	for m, row := range c {
		cp := make(map[Action]bool, len(row))
		for a, v := range row {
			cp[a] = v
		}
		out[m] = cp
	}
	return out
}

// UnmarshalJSON filters unknown keys so a decoded matrix stays inside the
// known module/action sets.
func (c *CapabilityMatrix) UnmarshalJSON(b []byte) error {
	var raw map[string]map[string]bool
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = ParseCapabilityMatrix(raw)
	return nil
}
