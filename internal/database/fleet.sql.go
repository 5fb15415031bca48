package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const fleetCardColumns = `id, card_number, customer_name, site, balance, is_active, created_at`

const listFleetCards = `-- name: ListFleetCards :many
SELECT ` + fleetCardColumns + `
FROM fleet_cards
WHERE site = $1 AND is_active
ORDER BY customer_name, card_number
`

func (q *Queries) ListFleetCards(ctx context.Context, site string) ([]FleetCard, error) {
	rows, err := q.db.Query(ctx, listFleetCards, site)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FleetCard
	for rows.Next() {
		var i FleetCard
		if err := rows.Scan(
			&i.ID, &i.CardNumber, &i.CustomerName, &i.Site,
			&i.Balance, &i.IsActive, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getFleetCardByNumber = `-- name: GetFleetCardByNumber :one
SELECT ` + fleetCardColumns + `
FROM fleet_cards
WHERE card_number = $1
`

func (q *Queries) GetFleetCardByNumber(ctx context.Context, cardNumber string) (FleetCard, error) {
	row := q.db.QueryRow(ctx, getFleetCardByNumber, cardNumber)
	var i FleetCard
	err := row.Scan(
		&i.ID, &i.CardNumber, &i.CustomerName, &i.Site,
		&i.Balance, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const createFleetCard = `-- name: CreateFleetCard :one
INSERT INTO fleet_cards (card_number, customer_name, site, balance)
VALUES ($1, $2, $3, $4)
RETURNING ` + fleetCardColumns

type CreateFleetCardParams struct {
	CardNumber   string
	CustomerName string
	Site         string
	Balance      pgtype.Numeric
}

func (q *Queries) CreateFleetCard(ctx context.Context, arg CreateFleetCardParams) (FleetCard, error) {
	row := q.db.QueryRow(ctx, createFleetCard,
		arg.CardNumber, arg.CustomerName, arg.Site, arg.Balance,
	)
	var i FleetCard
	err := row.Scan(
		&i.ID, &i.CardNumber, &i.CustomerName, &i.Site,
		&i.Balance, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const adjustFleetCardBalance = `-- name: AdjustFleetCardBalance :one
UPDATE fleet_cards SET balance = balance + $2
WHERE id = $1 AND is_active
RETURNING ` + fleetCardColumns

type AdjustFleetCardBalanceParams struct {
	ID     uuid.UUID
	Amount pgtype.Numeric
}

func (q *Queries) AdjustFleetCardBalance(ctx context.Context, arg AdjustFleetCardBalanceParams) (FleetCard, error) {
	row := q.db.QueryRow(ctx, adjustFleetCardBalance, arg.ID, arg.Amount)
	var i FleetCard
	err := row.Scan(
		&i.ID, &i.CardNumber, &i.CustomerName, &i.Site,
		&i.Balance, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const deactivateFleetCard = `-- name: DeactivateFleetCard :one
UPDATE fleet_cards SET is_active = FALSE
WHERE id = $1 AND is_active
RETURNING id
`

func (q *Queries) DeactivateFleetCard(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deactivateFleetCard, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
