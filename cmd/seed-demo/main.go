// seed-demo provisions a demo organization with crew members and
// configuration registries for local development.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/models"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	logger := config.GetLogger()
	logger.SetLevel(logrus.InfoLevel)

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	organization, err := models.CreateOrganization(ctx, &models.NewOrganization{
		Name:  "Demo Studio",
		Email: "hello@demostudio.example",
		Phone: "+95 9 777 000 111",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create organization: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetOrganizationIdInContext(ctx, organization.ID)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	crew := []models.NewCrewMember{
		{Name: "Aung Kyaw", Phone: "09777000222", Designation: "Photographer"},
		{Name: "Su Myat", Phone: "09777000333", Designation: "Videographer"},
		{Name: "Htet Lin", Phone: "09777000444", Designation: "Editor"},
	}
	for i := range crew {
		if _, err := models.CreateCrewMember(ctx, &crew[i]); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create crew member %s: %v\n", crew[i].Name, err)
			os.Exit(1)
		}
	}

	for _, name := range []string{"Wedding", "Portrait", "Event"} {
		if _, err := models.CreateBookingType(ctx, &models.NewBookingType{Name: name}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create booking type %s: %v\n", name, err)
			os.Exit(1)
		}
	}

	packages := []models.NewPackageType{
		{Name: "Silver", Category: "Wedding", DefaultCost: utils.NewAmount(decimal.NewFromInt(500000))},
		{Name: "Gold", Category: "Wedding", DefaultCost: utils.NewAmount(decimal.NewFromInt(1200000))},
		{Name: "Platinum", Category: "Wedding", DefaultCost: utils.NewAmount(decimal.NewFromInt(2500000))},
	}
	for i := range packages {
		if _, err := models.CreatePackageType(ctx, &packages[i]); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create package type %s: %v\n", packages[i].Name, err)
			os.Exit(1)
		}
	}

	token, err := utils.JwtGenerate(1, organization.ID, "Seed", "Admin")
	if err == nil {
		fmt.Println("demo token:", token)
	}
	fmt.Println("seeded organization:", organization.ID)
}
