package shop

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MJE43/survival-arcade/internal/wallet"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Item is a purchasable power-up.
type Item struct {
	Kind        wallet.PowerupKind `yaml:"kind" json:"kind"`
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
	Cost        int                `yaml:"cost" json:"cost"`
}

// Permanent reports whether the item can only be owned once.
func (i Item) Permanent() bool { return i.Kind.Permanent() }

// PrizeType classifies a slot prize.
type PrizeType string

const (
	PrizePowerup     PrizeType = "powerup"
	PrizeCoins       PrizeType = "coins"
	PrizeLossCoins   PrizeType = "loss_coins"
	PrizeLossPowerup PrizeType = "loss_powerup"
)

// Prize is one weighted slot outcome.
type Prize struct {
	Type   PrizeType          `yaml:"type" json:"type"`
	Kind   wallet.PowerupKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Amount int                `yaml:"amount,omitempty" json:"amount,omitempty"`
	Label  string             `yaml:"label" json:"label"`
	Weight int                `yaml:"weight" json:"weight"`
}

// Slots configures the slot machine.
type Slots struct {
	Cost   int     `yaml:"cost" json:"cost"`
	Prizes []Prize `yaml:"prizes" json:"prizes"`
}

// Catalog is the shop configuration.
type Catalog struct {
	// Payout multiplies the stake of a winning coin flip or high-low guess.
	Payout int    `yaml:"payout" json:"payout"`
	Items  []Item `yaml:"items" json:"items"`
	Slots  Slots  `yaml:"slots" json:"slots"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic("shop: embedded catalog: " + err.Error())
	}
	return c
}

// LoadCatalog reads a catalog file. An empty path yields the default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shop: read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates YAML catalog data.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("shop: parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	var errs []error
	if c.Payout < 1 {
		errs = append(errs, fmt.Errorf("payout must be at least 1, got %d", c.Payout))
	}
	seen := make(map[wallet.PowerupKind]bool)
	for _, it := range c.Items {
		if !it.Kind.Valid() {
			errs = append(errs, fmt.Errorf("item %q: unknown kind %q", it.Name, it.Kind))
		}
		if seen[it.Kind] {
			errs = append(errs, fmt.Errorf("item %q: duplicate kind %q", it.Name, it.Kind))
		}
		seen[it.Kind] = true
		if it.Cost <= 0 {
			errs = append(errs, fmt.Errorf("item %q: cost must be positive", it.Name))
		}
	}
	if c.Slots.Cost <= 0 {
		errs = append(errs, errors.New("slots: cost must be positive"))
	}
	total := 0
	for _, p := range c.Slots.Prizes {
		if p.Weight < 0 {
			errs = append(errs, fmt.Errorf("prize %q: negative weight", p.Label))
		}
		total += p.Weight
		switch p.Type {
		case PrizePowerup:
			if !p.Kind.Valid() {
				errs = append(errs, fmt.Errorf("prize %q: unknown kind %q", p.Label, p.Kind))
			}
		case PrizeCoins, PrizeLossCoins:
			if p.Amount <= 0 {
				errs = append(errs, fmt.Errorf("prize %q: amount must be positive", p.Label))
			}
		case PrizeLossPowerup:
		default:
			errs = append(errs, fmt.Errorf("prize %q: unknown type %q", p.Label, p.Type))
		}
	}
	if total <= 0 {
		errs = append(errs, errors.New("slots: total weight must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shop: invalid catalog: %w", err)
	}
	return nil
}

// Item looks up the item for kind.
func (c *Catalog) Item(kind wallet.PowerupKind) (Item, bool) {
	for _, it := range c.Items {
		if it.Kind == kind {
			return it, true
		}
	}
	return Item{}, false
}
