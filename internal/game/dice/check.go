package dice

import "go.uber.org/zap"

// CheckResult holds the full audit trail for a single difficulty check.
//
// Postcondition: Total == Stat + Level/2 + Roll.
type CheckResult struct {
	Stat       int  // acting stat value
	Level      int  // actor level (halved in the total, integer division)
	Roll       int  // the d20 result in [1, 20]
	Difficulty int  // target number the total is compared against
	Total      int  // Stat + Level/2 + Roll
	Success    bool // Total >= Difficulty
}

// Checker performs logged difficulty checks against a Source.
// All checks are logged at debug level with every component of the total,
// so no outcome is ever hidden or fudged.
type Checker struct {
	src    Source
	logger *zap.Logger
}

// NewChecker creates a Checker that rolls with src and logs each check to logger.
//
// Precondition: src and logger must be non-nil.
func NewChecker(src Source, logger *zap.Logger) *Checker {
	return &Checker{src: src, logger: logger}
}

// Check performs the fixed difficulty check: stat + level/2 + random(1..20)
// compared against difficulty.
//
// Precondition: difficulty may be any value; stat and level should be >= 0.
// Postcondition: Returns a CheckResult with Total == stat + level/2 + Roll and
// Success == (Total >= difficulty).
func (c *Checker) Check(stat, level, difficulty int) CheckResult {
	roll := c.src.Intn(20) + 1
	total := stat + level/2 + roll
	result := CheckResult{
		Stat:       stat,
		Level:      level,
		Roll:       roll,
		Difficulty: difficulty,
		Total:      total,
		Success:    total >= difficulty,
	}
	c.logger.Debug("difficulty check",
		zap.Int("stat", stat),
		zap.Int("level", level),
		zap.Int("roll", roll),
		zap.Int("total", total),
		zap.Int("difficulty", difficulty),
		zap.Bool("success", result.Success),
	)
	return result
}

// Roll returns a random int in [1, n].
//
// Precondition: n > 0.
func (c *Checker) Roll(n int) int {
	return c.src.Intn(n) + 1
}

// Src returns the underlying randomness source.
func (c *Checker) Src() Source {
	return c.src
}
