package game

// Protocols stands in for the in race event and controller protocols. They
// start with the world and stop when the server ends the race.
type Protocols struct {
	running bool
	stopped bool
}

func (p *Protocols) Start() {
	p.running = true
	p.stopped = false
}

func (p *Protocols) Running() bool { return p.running }
func (p *Protocols) Stopped() bool { return p.stopped }

func (p *Protocols) Stop() {
	p.running = false
	p.stopped = true
}
