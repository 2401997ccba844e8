package component

// LeverCommand runs Execute when a lever is switched on and Undo when it is
// switched off.
type LeverCommand struct {
	Execute func()
	Undo    func()
}

type Lever struct {
	On      bool
	Command LeverCommand
}
