package signals

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// Cooldown is a Condition that blocks new entries for a fixed number of
// bars after a position is closed. It watches the wired TradeManager's
// position state on every call rather than being notified of fills
// directly, so it composes with any TradeManager implementation.
type Cooldown struct {
	stock models.Stock
	bars  int

	tm plugin.TradeManager

	wasHeld   bool
	barsSince int
	cooling   bool
}

// NewCooldown builds a Cooldown enforcing bars bars of inactivity after
// stock's position closes, before a fresh entry is allowed again.
func NewCooldown(stock models.Stock, bars int) *Cooldown {
	return &Cooldown{stock: stock, bars: bars}
}

func (c *Cooldown) Reset() {
	c.wasHeld = false
	c.barsSince = 0
	c.cooling = false
}

func (c *Cooldown) Clone() plugin.Condition {
	return NewCooldown(c.stock, c.bars)
}

func (c *Cooldown) SetTradeManager(tm plugin.TradeManager) { c.tm = tm }

func (c *Cooldown) SetSignal(plugin.Signal) {}

func (c *Cooldown) IsValid(dt models.Datetime) bool {
	if c.tm == nil {
		return true
	}
	held := c.tm.Have(c.stock)

	if c.wasHeld && !held {
		c.cooling = true
		c.barsSince = 0
	}
	c.wasHeld = held

	if !c.cooling {
		return true
	}

	if c.barsSince >= c.bars {
		c.cooling = false
		return true
	}
	c.barsSince++
	return false
}
