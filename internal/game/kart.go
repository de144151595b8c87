// Package game holds headless versions of the race collaborators the lobby
// drives: a world with karts, the item manager, the race manager, the race
// protocols and a UI that only logs.
package game

// Kart is a kart with no physics. It only tracks what the lobby changes.
type Kart struct {
	name          string
	local         bool
	finished      bool
	finishTime    float32
	eliminated    bool
	visible       bool
	liveJoinUntil uint32
	position      int
}

func NewKart(name string, local bool) *Kart {
	return &Kart{name: name, local: local, visible: true}
}

func (k *Kart) IsLocalPlayer() bool    { return k.local }
func (k *Kart) ControllerName() string { return k.name }
func (k *Kart) HasFinishedRace() bool  { return k.finished }
func (k *Kart) IsEliminated() bool     { return k.eliminated }
func (k *Kart) Visible() bool          { return k.visible }
func (k *Kart) Position() int          { return k.position }
func (k *Kart) LiveJoinUntil() uint32  { return k.liveJoinUntil }

func (k *Kart) FinishedRace(at float32, _ bool) {
	k.finished = true
	k.finishTime = at
}

func (k *Kart) SetLiveJoinKart(untilTicks uint32) { k.liveJoinUntil = untilTicks }
func (k *Kart) SetVisible(v bool)                 { k.visible = v }
func (k *Kart) SetPosition(p int)                 { k.position = p }

// Reset puts the kart back on the grid.
func (k *Kart) Reset() {
	k.finished = false
	k.finishTime = 0
	k.eliminated = false
	k.position = 0
}
