package relay

// ImportStrategy is one way of applying a snapshot inside the guest
// document. Strategies are probed in order; the first whose CanApply holds
// for the guest's reported capabilities is sent along with IMPORT_DATA so
// the shim knows which path to take. The final manual strategy always
// applies: the shim leaves the payload at window.__importData and answers
// IMPORT_MANUAL for a human to finish.
type ImportStrategy struct {
	Name     string
	CanApply func(Capabilities) bool
}

// StrategyManual is the terminal fallback; it never fails.
const StrategyManual = "manual"

var importStrategies = []ImportStrategy{
	{Name: "importToothMovements", CanApply: hasGlobal("importToothMovements")},
	{Name: "applyMovements", CanApply: hasGlobal("applyMovements")},
	{Name: "loadMovementData", CanApply: hasGlobal("loadMovementData")},
	{Name: "fileInput", CanApply: func(c Capabilities) bool { return c.HasFileInput }},
	{Name: "importControl", CanApply: func(c Capabilities) bool { return c.HasImportControl }},
	{Name: StrategyManual, CanApply: func(Capabilities) bool { return true }},
}

func hasGlobal(name string) func(Capabilities) bool {
	return func(c Capabilities) bool {
		for _, g := range c.Globals {
			if g == name {
				return true
			}
		}
		return false
	}
}

// ChooseImportStrategy walks the chain and returns the first applicable
// strategy name. With empty capabilities this is always StrategyManual,
// never an error.
func ChooseImportStrategy(caps Capabilities) string {
	for _, s := range importStrategies {
		if s.CanApply(caps) {
			return s.Name
		}
	}
	return StrategyManual
}
