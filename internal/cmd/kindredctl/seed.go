package kindredctl

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	lifecyclesqlite "github.com/louisbranch/kindred/internal/services/lifecycle/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture format accepted by `kindredctl seed`.
type SeedFile struct {
	Companions []SeedCompanion `yaml:"companions"`
}

// SeedCompanion describes one companion and its behavior history.
type SeedCompanion struct {
	ID            string         `yaml:"id"`
	UserID        string         `yaml:"user_id"`
	LifeStatus    string         `yaml:"life_status"`
	InactiveDays  int            `yaml:"inactive_days"`
	InactiveSince string         `yaml:"inactive_since"`
	DormancyCount int            `yaml:"dormancy_count"`
	EvolutionPath string         `yaml:"evolution_path"`
	PathLocked    bool           `yaml:"path_locked"`
	Streak        *SeedStreak    `yaml:"streak"`
	Logs          []SeedLog      `yaml:"logs"`
	Attributes    map[string]int `yaml:"attributes"`
}

// SeedStreak is the optional streak profile of the companion's user.
type SeedStreak struct {
	Current int `yaml:"current"`
	Freezes int `yaml:"freezes"`
}

// SeedLog is one day of behavior.
type SeedLog struct {
	Date     string `yaml:"date"`
	Habits   int    `yaml:"habits"`
	Tasks    int    `yaml:"tasks"`
	CheckIns int    `yaml:"check_ins"`
}

// ParseSeedFile decodes a fixture, rejecting unknown keys.
func ParseSeedFile(data []byte) (SeedFile, error) {
	var file SeedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return SeedFile{}, fmt.Errorf("decode seed file: %w", err)
	}
	return file, nil
}

// companion converts the fixture into the onboarding state plus overrides.
func (s SeedCompanion) companion(now time.Time) (domain.Companion, error) {
	c := domain.NewCompanion(s.ID, s.UserID, now)
	var err error
	if s.LifeStatus != "" {
		status, err := domain.ParseLifeStatus(s.LifeStatus)
		if err != nil {
			return domain.Companion{}, err
		}
		c.LifeStatus = status
	}
	c.InactiveDays = max(s.InactiveDays, 0)
	if s.InactiveSince != "" {
		since, err := domain.ParseDateKey(s.InactiveSince)
		if err != nil {
			return domain.Companion{}, err
		}
		c.InactiveSince = &since
	}
	c.DormancyCount = max(s.DormancyCount, 0)
	if s.EvolutionPath != "" {
		path, err := domain.ParseEvolutionPath(s.EvolutionPath)
		if err != nil {
			return domain.Companion{}, err
		}
		c.EvolutionPath = path
		c.EvolutionPathLocked = s.PathLocked
	}
	for name, value := range s.Attributes {
		c.Attributes, err = c.Attributes.With(domain.Attribute(strings.ToLower(name)), value)
		if err != nil {
			return domain.Companion{}, err
		}
	}
	return c, nil
}

func (c *cli) newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load companions and behavior logs from a YAML fixture",
		Long: `Load companions, streak profiles and behavior logs from a YAML fixture.

Example file:
  companions:
    - id: comp-1
      user_id: user-1
      streak: {current: 4, freezes: 1}
      logs:
        - {date: 2026-10-15, habits: 3, tasks: 1}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			file, err := ParseSeedFile(data)
			if err != nil {
				return err
			}
			return c.withStore(cmd, func(store *lifecyclesqlite.Store, logger *zap.Logger) error {
				ctx := cmd.Context()
				now := c.clock().UTC()
				logs := 0
				for i, seed := range file.Companions {
					if strings.TrimSpace(seed.ID) == "" || strings.TrimSpace(seed.UserID) == "" {
						return fmt.Errorf("companion %d: id and user_id are required", i)
					}
					companion, err := seed.companion(now)
					if err != nil {
						return fmt.Errorf("companion %s: %w", seed.ID, err)
					}
					if err := store.PutCompanion(ctx, companion); err != nil {
						return fmt.Errorf("companion %s: %w", seed.ID, err)
					}
					if seed.Streak != nil {
						if err := store.PutStreak(ctx, domain.StreakState{
							UserID:           seed.UserID,
							CurrentStreak:    seed.Streak.Current,
							FreezesAvailable: seed.Streak.Freezes,
						}); err != nil {
							return fmt.Errorf("streak %s: %w", seed.UserID, err)
						}
					}
					for _, entry := range seed.Logs {
						date, err := domain.ParseDateKey(entry.Date)
						if err != nil {
							return fmt.Errorf("companion %s: %w", seed.ID, err)
						}
						if err := store.PutBehaviorLog(ctx, domain.BehaviorLog{
							UserID:          seed.UserID,
							Date:            date,
							HabitsCompleted: entry.Habits,
							TasksCompleted:  entry.Tasks,
							CheckIns:        entry.CheckIns,
						}); err != nil {
							return fmt.Errorf("behavior log %s %s: %w", seed.UserID, entry.Date, err)
						}
						logs++
					}
				}
				logger.Info("seed loaded", zap.Int("companions", len(file.Companions)), zap.Int("logs", logs))
				return writeJSON(cmd.OutOrStdout(), map[string]int{"companions": len(file.Companions), "logs": logs})
			})
		},
	}
}
