package wallet

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PowerupKind identifies a power-up. The set is closed.
type PowerupKind string

const (
	ExtraLife            PowerupKind = "extraLife"
	DoubleCoins          PowerupKind = "doubleCoins"
	Invisibility         PowerupKind = "invisibility"
	PermanentExtraLife   PowerupKind = "permanentExtraLife"
	PermanentDoubleCoins PowerupKind = "permanentDoubleCoins"
	SkipGame             PowerupKind = "skipGame"
)

var allKinds = []PowerupKind{
	ExtraLife,
	DoubleCoins,
	Invisibility,
	PermanentExtraLife,
	PermanentDoubleCoins,
	SkipGame,
}

// AllKinds returns every power-up kind in declaration order.
func AllKinds() []PowerupKind {
	out := make([]PowerupKind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Permanent reports whether the kind is owned-forever rather than consumed.
func (k PowerupKind) Permanent() bool {
	return k == PermanentExtraLife || k == PermanentDoubleCoins
}

// Valid reports whether k is one of the known kinds.
func (k PowerupKind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a wire name into a PowerupKind.
func ParseKind(s string) (PowerupKind, error) {
	k := PowerupKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("wallet: unknown power-up %q", s)
	}
	return k, nil
}

// Inventory maps each kind to its count.
type Inventory map[PowerupKind]int

// newInventory returns an inventory with every kind present at zero.
func newInventory() Inventory {
	inv := make(Inventory, len(allKinds))
	for _, k := range allKinds {
		inv[k] = 0
	}
	return inv
}

// Clone returns a copy that always carries every known kind.
func (inv Inventory) Clone() Inventory {
	out := newInventory()
	for k, n := range inv {
		if k.Valid() && n > 0 {
			out[k] = n
		}
	}
	return out
}

// Kinds lists kinds with a positive count, sorted by name.
func (inv Inventory) Kinds() []PowerupKind {
	var out []PowerupKind
	for k, n := range inv {
		if n > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot is the persisted wallet + inventory state.
type Snapshot struct {
	Coins    int       `json:"coins"`
	Powerups Inventory `json:"powerups"`
}

// encodeCoins and encodePowerups produce the stored byte forms. Map keys are
// emitted sorted by encoding/json, so the output is stable.
func encodeCoins(coins int) ([]byte, error) {
	return json.Marshal(coins)
}

func encodePowerups(inv Inventory) ([]byte, error) {
	return json.Marshal(inv.Clone())
}

func decodeCoins(raw []byte) (int, error) {
	var coins int
	if err := json.Unmarshal(raw, &coins); err != nil {
		return 0, fmt.Errorf("wallet: decode coins: %w", err)
	}
	if coins < 0 {
		return 0, fmt.Errorf("wallet: decode coins: negative balance %d", coins)
	}
	return coins, nil
}

// decodePowerups merges the stored counts over zero defaults. Unknown kinds
// and negative counts are dropped.
func decodePowerups(raw []byte) (Inventory, error) {
	var stored map[string]int
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("wallet: decode powerups: %w", err)
	}
	inv := newInventory()
	for name, n := range stored {
		k := PowerupKind(name)
		if !k.Valid() || n < 0 {
			continue
		}
		inv[k] = n
	}
	return inv, nil
}
