// Package fixtures provides seed data for development and demos.
package fixtures

import (
	"context"
	"time"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/storage"
)

// Users returns the demo member profiles.
func Users() []camper.User {
	return []camper.User{
		{
			ID:            "user-1",
			Email:         "alex.chen@camp.ai",
			Username:      "alexchen",
			FullName:      "Alex Chen",
			WalletAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",
			Bio:           "Building autonomous trading systems. Former quant trader turned AI researcher.",
			Role:          camper.RoleBuilder,
			Rank:          camper.RankPlatinum,
			Collaboration: camper.CollaborationMetrics{Score: 92, ProjectsCompleted: 12, PartnersCount: 8, ActiveCollabs: 3},
			ProjectsBuilt: 15,
			TechBadges:    []string{"react", "python", "ai-ml", "blockchain"},
			CreatedAt:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            "user-2",
			Email:         "maya.patel@camp.ai",
			Username:      "mayapatel",
			FullName:      "Maya Patel",
			Bio:           "DeFi researcher & protocol designer. Passionate about making finance accessible.",
			Role:          camper.RoleResearcher,
			Rank:          camper.RankDiamond,
			Collaboration: camper.CollaborationMetrics{Score: 98, ProjectsCompleted: 18, PartnersCount: 12, ActiveCollabs: 5},
			ProjectsBuilt: 22,
			TechBadges:    []string{"blockchain", "defi", "web3", "python"},
			CreatedAt:     time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            "user-4",
			Email:         "sam.nakamoto@camp.ai",
			Username:      "samnakamoto",
			FullName:      "Sam Nakamoto",
			Bio:           "Smart contract auditor turned agent builder. Security first, always.",
			Role:          camper.RoleMentor,
			Rank:          camper.RankPlatinum,
			Collaboration: camper.CollaborationMetrics{Score: 94, ProjectsCompleted: 14, PartnersCount: 10, ActiveCollabs: 4},
			ProjectsBuilt: 16,
			TechBadges:    []string{"blockchain", "web3", "defi"},
			CreatedAt:     time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Agents returns the demo agent listings.
func Agents() []agent.Agent {
	return []agent.Agent{
		{
			ID:             "agent-1",
			Name:           "AlphaTraderAI",
			Symbol:         "ALPHA",
			Description:    "Autonomous trading agent leveraging deep reinforcement learning for high-frequency strategies across multiple DEXs.",
			Category:       agent.CategoryTrading,
			CreatorID:      "user-1",
			CreatorName:    "Alex Chen",
			Status:         agent.StatusActive,
			IsTrending:     true,
			IsSpotlight:    true,
			TotalSupply:    "1000000",
			CurrentPrice:   "24.50",
			PriceChange24h: 4.2,
			MarketCap:      "24500000",
			Volume24h:      "850000",
			TotalRevenue:   "312450",
			HoldersCount:   3247,
			TxCount:        8934,
			RevenueSplit:   agent.RevenueSplit{Creator: 40, Holders: 30, Treasury: 20, Ecosystem: 10},
			WebsiteURL:     "https://campdefi.app",
			CreatedAt:      time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             "agent-2",
			Name:           "DeFi Compass",
			Symbol:         "COMPASS",
			Description:    "Research-driven protocol analyzer. Evaluates DeFi protocols for safety and yield optimization.",
			Category:       agent.CategoryFinance,
			CreatorID:      "user-2",
			CreatorName:    "Maya Patel",
			Status:         agent.StatusActive,
			IsTrending:     true,
			TotalSupply:    "5000000",
			CurrentPrice:   "12.35",
			PriceChange24h: 2.8,
			MarketCap:      "61700000",
			Volume24h:      "520000",
			TotalRevenue:   "445000",
			HoldersCount:   4821,
			TxCount:        12456,
			RevenueSplit:   agent.RevenueSplit{Creator: 35, Holders: 35, Treasury: 20, Ecosystem: 10},
			CreatedAt:      time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             "agent-3",
			Name:           "ArtForge AI",
			Symbol:         "ARTF",
			Description:    "Creative AI that generates and curates digital art. Specializes in generative NFT collections.",
			Category:       agent.CategoryCreative,
			CreatorID:      "user-2",
			CreatorName:    "Maya Patel",
			Status:         agent.StatusActive,
			TotalSupply:    "2000000",
			CurrentPrice:   "8.90",
			PriceChange24h: 1.5,
			MarketCap:      "17800000",
			Volume24h:      "180000",
			TotalRevenue:   "89000",
			HoldersCount:   1842,
			TxCount:        5621,
			RevenueSplit:   agent.RevenueSplit{Creator: 50, Holders: 25, Treasury: 15, Ecosystem: 10},
			CreatedAt:      time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             "agent-4",
			Name:           "SecureAudit Pro",
			Symbol:         "AUDIT",
			Description:    "Automated smart contract auditor. Scans code for vulnerabilities using advanced static analysis.",
			Category:       agent.CategoryLegal,
			CreatorID:      "user-4",
			CreatorName:    "Sam Nakamoto",
			Status:         agent.StatusActive,
			IsTrending:     true,
			TotalSupply:    "3000000",
			CurrentPrice:   "15.65",
			PriceChange24h: 2.1,
			MarketCap:      "47000000",
			Volume24h:      "420000",
			TotalRevenue:   "234000",
			HoldersCount:   2934,
			TxCount:        7823,
			RevenueSplit:   agent.RevenueSplit{Creator: 40, Holders: 30, Treasury: 20, Ecosystem: 10},
			CreatedAt:      time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Campers returns the demo scholarship camper profiles.
func Campers() []camper.Camper {
	return []camper.Camper{
		{
			ID:              "camper-marcus",
			Name:            "Marcus Johnson",
			Age:             27,
			Bio:             "Aspiring AI consultant dedicated to helping small businesses leverage artificial intelligence for growth and efficiency.",
			ImpactArea:      "AI Consulting",
			HeroProgram:     true,
			Skills:          []string{"ai-ml", "consulting", "education"},
			SponsorshipGoal: 25000,
			Status:          camper.StatusApproved,
			CreatedAt:       time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:              "camper-deshawn",
			Name:            "DeShawn Williams",
			Age:             25,
			Bio:             "Passionate about sustainable energy solutions and bringing clean power to underserved communities.",
			ImpactArea:      "Renewable Energy",
			HeroProgram:     true,
			Skills:          []string{"engineering", "solar", "project-management"},
			SponsorshipGoal: 25000,
			Status:          camper.StatusApproved,
			CreatedAt:       time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:              "camper-andre",
			Name:            "Andre Davis",
			Age:             26,
			Bio:             "Full-stack developer committed to creating technology that bridges the digital divide in urban communities.",
			ImpactArea:      "Information Technology",
			HeroProgram:     false,
			Skills:          []string{"fullstack", "aws", "education"},
			SponsorshipGoal: 25000,
			Status:          camper.StatusApproved,
			CreatedAt:       time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Listings returns the demo RWA listings.
func Listings() []rwa.Listing {
	return []rwa.Listing{
		{
			ID:              "rwa-beta-camp-1",
			Name:            "Beta Camp 1 - Residential Rehab",
			Description:     "Fully renovated residential complex designed for tech camp participants. Features modern amenities, co-working spaces, and high-speed internet infrastructure.",
			PropertyType:    "property",
			Location:        "Atlanta, GA",
			TotalTokens:     19200,
			AvailableTokens: 2880,
			TokenPrice:      125,
			TotalValue:      2400000,
			APY:             8.5,
			Status:          rwa.StatusAvailable,
			CreatedAt:       time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:              "rwa-beta-camp-2",
			Name:            "Beta Camp 2 - Residential 4-Plex",
			Description:     "Modern 4-plex designed for collaborative living. Each unit features private bedrooms with shared common areas.",
			PropertyType:    "property",
			Location:        "Houston, TX",
			TotalTokens:     20224,
			AvailableTokens: 1618,
			TokenPrice:      89,
			TotalValue:      1800000,
			APY:             7.2,
			Status:          rwa.StatusAvailable,
			CreatedAt:       time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Seed loads every fixture set into store. Existing ids are overwritten
// by create-or-ignore semantics of the backing store; seeding twice on a
// memory store just re-creates the same records.
func Seed(ctx context.Context, store storage.Store) error {
	for _, u := range Users() {
		if _, err := store.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	for _, a := range Agents() {
		if _, err := store.CreateAgent(ctx, a); err != nil {
			return err
		}
	}
	for _, c := range Campers() {
		if _, err := store.CreateCamper(ctx, c); err != nil {
			return err
		}
	}
	for _, l := range Listings() {
		if _, err := store.CreateListing(ctx, l); err != nil {
			return err
		}
	}
	return nil
}
