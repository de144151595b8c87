package game

import "github.com/DoyleJ11/kart-lobby-client/internal/wire"

// ItemManager keeps the seeds that make item boxes match the server.
type ItemManager struct {
	seed        uint32
	powerupSeed uint64
	state       []byte
}

func NewItemManager() *ItemManager { return &ItemManager{} }

func (m *ItemManager) UpdateRandomSeed(seed uint32) { m.seed = seed }
func (m *ItemManager) SetPowerupSeed(seed uint64)   { m.powerupSeed = seed }
func (m *ItemManager) Seeds() (uint32, uint64)      { return m.seed, m.powerupSeed }

func (m *ItemManager) RestoreCompleteState(r *wire.Reader) error {
	state, err := readStateBlock(r)
	if err != nil {
		return err
	}
	m.state = state
	return nil
}
