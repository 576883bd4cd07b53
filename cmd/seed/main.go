// Command seed loads the bakery catalog and demo accounts into MongoDB and
// prints a bearer token for each account.
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"bakery-shop-backend/internal/config"
	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/repository"
	"bakery-shop-backend/internal/service"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type seedFile struct {
	Categories []struct {
		Name        string `yaml:"name"`
		Icon        string `yaml:"icon"`
		Image       string `yaml:"image"`
		Description string `yaml:"description"`
	} `yaml:"categories"`
	Products []struct {
		Name        string          `yaml:"name"`
		Description string          `yaml:"description"`
		Price       decimal.Decimal `yaml:"price"`
		Image       string          `yaml:"image"`
		Category    string          `yaml:"category"`
		Rating      float64         `yaml:"rating"`
		Reviews     int             `yaml:"reviews"`
		Stock       int             `yaml:"stock"`
		Featured    bool            `yaml:"featured"`
		Ingredients []string        `yaml:"ingredients"`
		Features    []string        `yaml:"features"`
	} `yaml:"products"`
	Users []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Email  string `yaml:"email"`
		Phone  string `yaml:"phone"`
		Role   string `yaml:"role"`
		Points int64  `yaml:"points"`
		Tier   string `yaml:"tier"`
	} `yaml:"users"`
}

func main() {
	var catalogFile string
	flag.StringVar(&catalogFile, "catalog", "", "YAML seed file (defaults to the built-in bakery catalog)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, config.Load(), catalogFile); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg *config.Config, catalogFile string) error {
	data := builtinCatalog
	if catalogFile != "" {
		var err error
		if data, err = os.ReadFile(catalogFile); err != nil {
			return errors.Wrap(err, "read seed file")
		}
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed file")
	}

	lg.Info("Connecting to MongoDB", zap.String("db", cfg.MongoDBName))
	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	catalog := repository.NewMongoCatalogRepository(db)
	categoryIDs := make(map[string]string, len(seed.Categories))
	for _, c := range seed.Categories {
		cat := &model.Category{Name: c.Name, Icon: c.Icon, Image: c.Image, Description: c.Description, IsActive: true}
		if err := catalog.UpsertCategory(ctx, cat); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Name)
		}
		categoryIDs[c.Name] = cat.ID
	}
	lg.Info("Upserted categories", zap.Int("count", len(categoryIDs)))

	for _, p := range seed.Products {
		categoryID, ok := categoryIDs[p.Category]
		if !ok {
			return errors.Errorf("product %s references unknown category %s", p.Name, p.Category)
		}
		if err := catalog.UpsertProduct(ctx, &model.Product{
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			Image:        p.Image,
			CategoryID:   categoryID,
			CategoryName: p.Category,
			Rating:       p.Rating,
			Reviews:      p.Reviews,
			Stock:        p.Stock,
			Ingredients:  p.Ingredients,
			Features:     p.Features,
			IsActive:     true,
			IsFeatured:   p.Featured,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}
	}
	lg.Info("Upserted products", zap.Int("count", len(seed.Products)))

	users := repository.NewMongoUserRepository(db)
	tokens := service.NewJWTVerifier(cfg.JWTSecret, time.Duration(cfg.JWTExpireDays)*24*time.Hour, users)
	for _, u := range seed.Users {
		err := users.Create(ctx, &model.User{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Phone:        u.Phone,
			Role:         model.Role(u.Role),
			RewardPoints: u.Points,
			Tier:         model.Tier(u.Tier),
		})
		switch {
		case errors.Is(err, model.ErrDuplicate):
			lg.Info("User exists, keeping it", zap.String("user_id", u.ID))
		case err != nil:
			return errors.Wrapf(err, "create user %s", u.ID)
		}

		token, err := tokens.IssueToken(u.ID)
		if err != nil {
			return errors.Wrapf(err, "issue token for %s", u.ID)
		}
		fmt.Printf("%s (%s): %s\n", u.Name, u.Role, token)
	}
	return nil
}
