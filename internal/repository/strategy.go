package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"spinsim/internal/lane"
	"spinsim/internal/model"
	"spinsim/internal/storage/mysql"
)

// StrategyBundle is the serializable strategy definition: lanes with their
// configs and trigger bets, plus the settings they were tuned for. The
// engine consumes only the lane and settings shapes inside it.
type StrategyBundle struct {
	Lanes    []*lane.Lane   `json:"lanes"`
	Settings model.Settings `json:"settings"`
}

// StrategyRepository stores named strategy bundles as opaque JSON blobs,
// last write wins.
type StrategyRepository struct {
	dbhandler *mysql.Handler
}

func NewStrategyRepository(dbhandler *mysql.Handler) *StrategyRepository {
	return &StrategyRepository{dbhandler: dbhandler}
}

func (repo *StrategyRepository) SaveStrategy(name string, bundle StrategyBundle) error {
	const op = "repository.strategy.SaveStrategy"

	const query = "INSERT INTO strategies(name, bundle, created_at, updated_at) " +
		"VALUES(?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE bundle = VALUES(bundle), updated_at = VALUES(updated_at)"

	blob, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	if _, err = repo.dbhandler.PrepareAndExecute(query, name, blob, now, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *StrategyRepository) GetStrategyByName(name string) (*StrategyBundle, error) {
	const op = "repository.strategy.GetStrategyByName"

	const query = "SELECT bundle FROM strategies WHERE name = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var blob []byte

	if err = row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bundle := &StrategyBundle{}

	if err = json.Unmarshal(blob, bundle); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bundle, nil
}

func (repo *StrategyRepository) ListStrategies() ([]string, error) {
	const op = "repository.strategy.ListStrategies"

	const query = "SELECT name FROM strategies ORDER BY name"

	rows, err := repo.dbhandler.PrepareAndQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string

		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		names = append(names, name)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return names, nil
}

func (repo *StrategyRepository) DeleteStrategy(name string) error {
	const op = "repository.strategy.DeleteStrategy"

	const query = "DELETE FROM strategies WHERE name = ?"

	if _, err := repo.dbhandler.PrepareAndExecute(query, name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
