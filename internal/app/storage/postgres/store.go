// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/domain/sponsor"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/storage"
)

// Store implements storage.Store on a PostgreSQL handle.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- AgentStore --------------------------------------------------------------

func (s *Store) CreateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	splitJSON, err := json.Marshal(a.RevenueSplit)
	if err != nil {
		return agent.Agent{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO camp_agents (
			id, name, symbol, description, category, avatar_url, creator_id,
			creator_name, status, is_trending, is_spotlight, total_supply,
			current_price, price_change_24h, market_cap, volume_24h,
			total_revenue, holders_count, tx_count, revenue_split,
			website_url, github_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`, a.ID, a.Name, a.Symbol, a.Description, a.Category, a.AvatarURL, a.CreatorID,
		a.CreatorName, a.Status, a.IsTrending, a.IsSpotlight, a.TotalSupply,
		a.CurrentPrice, a.PriceChange24h, a.MarketCap, a.Volume24h,
		a.TotalRevenue, a.HoldersCount, a.TxCount, splitJSON,
		a.WebsiteURL, a.GithubURL, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return agent.Agent{}, err
	}
	return a, nil
}

func (s *Store) UpdateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	existing, err := s.GetAgent(ctx, a.ID)
	if err != nil {
		return agent.Agent{}, err
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	splitJSON, err := json.Marshal(a.RevenueSplit)
	if err != nil {
		return agent.Agent{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE camp_agents
		SET name = $2, symbol = $3, description = $4, category = $5,
		    avatar_url = $6, status = $7, is_trending = $8, is_spotlight = $9,
		    current_price = $10, price_change_24h = $11, market_cap = $12,
		    volume_24h = $13, total_revenue = $14, holders_count = $15,
		    tx_count = $16, revenue_split = $17, updated_at = $18
		WHERE id = $1
	`, a.ID, a.Name, a.Symbol, a.Description, a.Category,
		a.AvatarURL, a.Status, a.IsTrending, a.IsSpotlight,
		a.CurrentPrice, a.PriceChange24h, a.MarketCap,
		a.Volume24h, a.TotalRevenue, a.HoldersCount,
		a.TxCount, splitJSON, a.UpdatedAt)
	if err != nil {
		return agent.Agent{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return agent.Agent{}, storage.ErrNotFound
	}
	return a, nil
}

const agentColumns = `id, name, symbol, description, category, avatar_url,
	creator_id, creator_name, status, is_trending, is_spotlight, total_supply,
	current_price, price_change_24h, market_cap, volume_24h, total_revenue,
	holders_count, tx_count, revenue_split, website_url, github_url,
	created_at, updated_at`

func scanAgent(row interface{ Scan(...any) error }) (agent.Agent, error) {
	var (
		a        agent.Agent
		splitRaw []byte
	)
	err := row.Scan(&a.ID, &a.Name, &a.Symbol, &a.Description, &a.Category,
		&a.AvatarURL, &a.CreatorID, &a.CreatorName, &a.Status, &a.IsTrending,
		&a.IsSpotlight, &a.TotalSupply, &a.CurrentPrice, &a.PriceChange24h,
		&a.MarketCap, &a.Volume24h, &a.TotalRevenue, &a.HoldersCount,
		&a.TxCount, &splitRaw, &a.WebsiteURL, &a.GithubURL,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return agent.Agent{}, err
	}
	if len(splitRaw) > 0 {
		_ = json.Unmarshal(splitRaw, &a.RevenueSplit)
	}
	return a, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM camp_agents WHERE id = $1`, id)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return agent.Agent{}, storage.ErrNotFound
	}
	return a, err
}

func (s *Store) ListAgents(ctx context.Context, q storage.AgentQuery) ([]agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM camp_agents WHERE 1=1`
	args := []any{}

	if q.Status != "" {
		args = append(args, q.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.TrendingOnly {
		query += " AND is_trending"
	}

	switch q.SortBy {
	case agent.SortVolume:
		query += " ORDER BY volume_24h::numeric DESC"
	case agent.SortHolders:
		query += " ORDER BY holders_count DESC"
	case agent.SortPriceChange:
		query += " ORDER BY price_change_24h DESC"
	case agent.SortNewest:
		query += " ORDER BY created_at DESC"
	default:
		query += " ORDER BY market_cap::numeric DESC"
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) GetSpotlightAgent(ctx context.Context) (agent.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM camp_agents
		 WHERE is_spotlight AND status = $1 LIMIT 1`, agent.StatusActive)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return agent.Agent{}, storage.ErrNotFound
	}
	return a, err
}

// --- CamperStore -------------------------------------------------------------

func (s *Store) CreateCamper(ctx context.Context, c camper.Camper) (camper.Camper, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	skillsJSON, err := json.Marshal(c.Skills)
	if err != nil {
		return camper.Camper{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO camp_campers (
			id, name, age, bio, avatar_url, impact_area, hero_program, skills,
			sponsorship_goal, sponsorship_received, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ID, c.Name, c.Age, c.Bio, c.AvatarURL, c.ImpactArea, c.HeroProgram,
		skillsJSON, c.SponsorshipGoal, c.SponsorshipReceived, c.Status, c.CreatedAt)
	if err != nil {
		return camper.Camper{}, err
	}
	return c, nil
}

func (s *Store) UpdateCamper(ctx context.Context, c camper.Camper) (camper.Camper, error) {
	skillsJSON, err := json.Marshal(c.Skills)
	if err != nil {
		return camper.Camper{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE camp_campers
		SET name = $2, age = $3, bio = $4, avatar_url = $5, impact_area = $6,
		    hero_program = $7, skills = $8, sponsorship_goal = $9,
		    sponsorship_received = $10, status = $11
		WHERE id = $1
	`, c.ID, c.Name, c.Age, c.Bio, c.AvatarURL, c.ImpactArea,
		c.HeroProgram, skillsJSON, c.SponsorshipGoal,
		c.SponsorshipReceived, c.Status)
	if err != nil {
		return camper.Camper{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return camper.Camper{}, storage.ErrNotFound
	}
	return c, nil
}

func scanCamper(row interface{ Scan(...any) error }) (camper.Camper, error) {
	var (
		c         camper.Camper
		skillsRaw []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Age, &c.Bio, &c.AvatarURL, &c.ImpactArea,
		&c.HeroProgram, &skillsRaw, &c.SponsorshipGoal, &c.SponsorshipReceived,
		&c.Status, &c.CreatedAt)
	if err != nil {
		return camper.Camper{}, err
	}
	if len(skillsRaw) > 0 {
		_ = json.Unmarshal(skillsRaw, &c.Skills)
	}
	return c, nil
}

const camperColumns = `id, name, age, bio, avatar_url, impact_area,
	hero_program, skills, sponsorship_goal, sponsorship_received, status, created_at`

func (s *Store) GetCamper(ctx context.Context, id string) (camper.Camper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+camperColumns+` FROM camp_campers WHERE id = $1`, id)
	c, err := scanCamper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return camper.Camper{}, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) ListCampers(ctx context.Context, status camper.Status, limit int) ([]camper.Camper, error) {
	query := `SELECT ` + camperColumns + ` FROM camp_campers WHERE 1=1`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []camper.Camper
	for rows.Next() {
		c, err := scanCamper(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// --- SponsorStore ------------------------------------------------------------

func (s *Store) CreateSponsor(ctx context.Context, sp sponsor.Sponsor) (sponsor.Sponsor, error) {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	sp.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO camp_sponsors (
			id, user_id, name, email, wallet_address, camper_id, amount, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, sp.ID, sp.UserID, sp.Name, sp.Email, sp.WalletAddress, sp.CamperID,
		sp.Amount, sp.Status, sp.CreatedAt)
	if err != nil {
		return sponsor.Sponsor{}, err
	}
	return sp, nil
}

func (s *Store) UpdateSponsor(ctx context.Context, sp sponsor.Sponsor) (sponsor.Sponsor, error) {
	sp.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE camp_sponsors
		SET wallet_address = $2, camper_id = $3, amount = $4, status = $5, updated_at = $6
		WHERE id = $1
	`, sp.ID, sp.WalletAddress, sp.CamperID, sp.Amount, sp.Status, sp.UpdatedAt)
	if err != nil {
		return sponsor.Sponsor{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sponsor.Sponsor{}, storage.ErrNotFound
	}
	return sp, nil
}

func (s *Store) GetSponsor(ctx context.Context, id string) (sponsor.Sponsor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, email, wallet_address, camper_id, amount,
		       status, created_at, COALESCE(updated_at, created_at)
		FROM camp_sponsors WHERE id = $1
	`, id)

	var sp sponsor.Sponsor
	err := row.Scan(&sp.ID, &sp.UserID, &sp.Name, &sp.Email, &sp.WalletAddress,
		&sp.CamperID, &sp.Amount, &sp.Status, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sponsor.Sponsor{}, storage.ErrNotFound
	}
	return sp, err
}

func (s *Store) ListSponsorsByUser(ctx context.Context, userID string) ([]sponsor.Sponsor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, email, wallet_address, camper_id, amount,
		       status, created_at, COALESCE(updated_at, created_at)
		FROM camp_sponsors WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sponsor.Sponsor
	for rows.Next() {
		var sp sponsor.Sponsor
		if err := rows.Scan(&sp.ID, &sp.UserID, &sp.Name, &sp.Email,
			&sp.WalletAddress, &sp.CamperID, &sp.Amount, &sp.Status,
			&sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sp)
	}
	return result, rows.Err()
}

// --- RWAStore ----------------------------------------------------------------

func (s *Store) CreateListing(ctx context.Context, l rwa.Listing) (rwa.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO camp_rwa_listings (
			id, name, description, property_type, location, image_url,
			total_tokens, available_tokens, token_price, total_value, apy,
			status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, l.ID, l.Name, l.Description, l.PropertyType, l.Location, l.ImageURL,
		l.TotalTokens, l.AvailableTokens, l.TokenPrice, l.TotalValue, l.APY,
		l.Status, l.CreatedAt)
	if err != nil {
		return rwa.Listing{}, err
	}
	return l, nil
}

func (s *Store) GetListing(ctx context.Context, id string) (rwa.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, property_type, location, image_url,
		       total_tokens, available_tokens, token_price, total_value, apy,
		       status, created_at
		FROM camp_rwa_listings WHERE id = $1
	`, id)

	var l rwa.Listing
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.PropertyType, &l.Location,
		&l.ImageURL, &l.TotalTokens, &l.AvailableTokens, &l.TokenPrice,
		&l.TotalValue, &l.APY, &l.Status, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rwa.Listing{}, storage.ErrNotFound
	}
	return l, err
}

func (s *Store) ListListings(ctx context.Context, status rwa.Status, limit int) ([]rwa.Listing, error) {
	query := `
		SELECT id, name, description, property_type, location, image_url,
		       total_tokens, available_tokens, token_price, total_value, apy,
		       status, created_at
		FROM camp_rwa_listings WHERE 1=1`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []rwa.Listing
	for rows.Next() {
		var l rwa.Listing
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.PropertyType,
			&l.Location, &l.ImageURL, &l.TotalTokens, &l.AvailableTokens,
			&l.TokenPrice, &l.TotalValue, &l.APY, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// --- TransactionStore --------------------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, tx trade.Transaction) (trade.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO camp_transactions (
			id, user_id, agent_id, type, amount, price, total_value, tx_hash,
			status, network, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, tx.ID, tx.UserID, tx.AgentID, tx.Type, tx.Amount, tx.Price,
		tx.TotalValue, tx.TxHash, tx.Status, tx.Network, tx.Timestamp)
	if err != nil {
		return trade.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID string, limit int) ([]trade.Transaction, error) {
	query := `
		SELECT id, user_id, agent_id, type, amount, price, total_value,
		       tx_hash, status, network, ts
		FROM camp_transactions WHERE user_id = $1
		ORDER BY ts DESC`
	args := []any{userID}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []trade.Transaction
	for rows.Next() {
		var tx trade.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.AgentID, &tx.Type,
			&tx.Amount, &tx.Price, &tx.TotalValue, &tx.TxHash, &tx.Status,
			&tx.Network, &tx.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u camper.User) (camper.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	metricsJSON, err := json.Marshal(u.Collaboration)
	if err != nil {
		return camper.User{}, err
	}
	badgesJSON, err := json.Marshal(u.TechBadges)
	if err != nil {
		return camper.User{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO camp_users (
			id, email, username, full_name, avatar_url, wallet_address, bio,
			camp_role, camp_rank, collaboration, projects_built, tech_badges,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, u.ID, u.Email, u.Username, u.FullName, u.AvatarURL, u.WalletAddress,
		u.Bio, u.Role, u.Rank, metricsJSON, u.ProjectsBuilt, badgesJSON,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return camper.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u camper.User) (camper.User, error) {
	u.UpdatedAt = time.Now().UTC()

	metricsJSON, err := json.Marshal(u.Collaboration)
	if err != nil {
		return camper.User{}, err
	}
	badgesJSON, err := json.Marshal(u.TechBadges)
	if err != nil {
		return camper.User{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE camp_users
		SET email = $2, username = $3, full_name = $4, avatar_url = $5,
		    wallet_address = $6, bio = $7, camp_role = $8, camp_rank = $9,
		    collaboration = $10, projects_built = $11, tech_badges = $12,
		    updated_at = $13
		WHERE id = $1
	`, u.ID, u.Email, u.Username, u.FullName, u.AvatarURL, u.WalletAddress,
		u.Bio, u.Role, u.Rank, metricsJSON, u.ProjectsBuilt, badgesJSON,
		u.UpdatedAt)
	if err != nil {
		return camper.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return camper.User{}, storage.ErrNotFound
	}
	return u, nil
}

func scanUser(row interface{ Scan(...any) error }) (camper.User, error) {
	var (
		u          camper.User
		metricsRaw []byte
		badgesRaw  []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.AvatarURL,
		&u.WalletAddress, &u.Bio, &u.Role, &u.Rank, &metricsRaw,
		&u.ProjectsBuilt, &badgesRaw, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return camper.User{}, err
	}
	if len(metricsRaw) > 0 {
		_ = json.Unmarshal(metricsRaw, &u.Collaboration)
	}
	if len(badgesRaw) > 0 {
		_ = json.Unmarshal(badgesRaw, &u.TechBadges)
	}
	return u, nil
}

const userColumns = `id, email, username, full_name, avatar_url, wallet_address,
	bio, camp_role, camp_rank, collaboration, projects_built, tech_badges,
	created_at, updated_at`

func (s *Store) GetUser(ctx context.Context, id string) (camper.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM camp_users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return camper.User{}, storage.ErrNotFound
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]camper.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM camp_users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []camper.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}
