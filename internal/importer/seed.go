package importer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactscore/rse-cli/internal/model"
	"github.com/impactscore/rse-cli/internal/scoring"
)

// seedEntry is one company in the built-in demo dataset with fixed category
// scores.
type seedEntry struct {
	company model.Company
	env     float64
	social  float64
	gov     float64
	ethics  float64
	certs   []string
}

// seedData lists well-known French companies used to bootstrap a demo
// database without hitting external sources.
var seedData = []seedEntry{
	{
		company: model.Company{SIREN: "552120222", Name: "Danone", Sector: "Agroalimentaire", Size: model.SizeLarge, Country: "France",
			Description: "Groupe international de produits alimentaires", Website: "https://www.danone.com"},
		env: 85, social: 82, gov: 78, ethics: 88, certs: []string{"ISO 14001", "B-Corp"},
	},
	{
		company: model.Company{SIREN: "542065479", Name: "Schneider Electric", Sector: "Industrie", Size: model.SizeLarge, Country: "France",
			Description: "Spécialiste mondial de la gestion de l'énergie", Website: "https://www.se.com"},
		env: 90, social: 85, gov: 83, ethics: 87, certs: []string{"ISO 14001", "ISO 26000"},
	},
	{
		company: model.Company{SIREN: "775665671", Name: "L'Oréal", Sector: "Cosmétique", Size: model.SizeLarge, Country: "France",
			Description: "Groupe de cosmétiques et de beauté", Website: "https://www.loreal.com"},
		env: 78, social: 80, gov: 85, ethics: 82, certs: []string{"ISO 14001"},
	},
	{
		company: model.Company{SIREN: "552032534", Name: "Carrefour", Sector: "Distribution", Size: model.SizeLarge, Country: "France",
			Description: "Groupe de distribution alimentaire", Website: "https://www.carrefour.com"},
		env: 70, social: 75, gov: 72, ethics: 68, certs: []string{"ISO 14001"},
	},
	{
		company: model.Company{SIREN: "775671191", Name: "Renault", Sector: "Automobile", Size: model.SizeLarge, Country: "France",
			Description: "Constructeur automobile français", Website: "https://www.renault.com"},
		env: 72, social: 70, gov: 68, ethics: 65, certs: []string{"ISO 14001"},
	},
	{
		company: model.Company{SIREN: "552081317", Name: "Michelin", Sector: "Automobile", Size: model.SizeLarge, Country: "France",
			Description: "Fabricant de pneumatiques", Website: "https://www.michelin.com"},
		env: 82, social: 78, gov: 80, ethics: 85, certs: []string{"ISO 14001", "EMAS"},
	},
	{
		company: model.Company{SIREN: "775672272", Name: "Veolia", Sector: "Environnement", Size: model.SizeLarge, Country: "France",
			Description: "Services à l'environnement", Website: "https://www.veolia.com"},
		env: 95, social: 80, gov: 78, ethics: 82, certs: []string{"ISO 14001", "EMAS"},
	},
	{
		company: model.Company{SIREN: "552020570", Name: "Kering", Sector: "Luxe", Size: model.SizeLarge, Country: "France",
			Description: "Groupe de luxe français", Website: "https://www.kering.com"},
		env: 88, social: 85, gov: 90, ethics: 92, certs: []string{"ISO 14001", "B-Corp"},
	},
	{
		company: model.Company{SIREN: "775663788", Name: "Société Générale", Sector: "Banque", Size: model.SizeLarge, Country: "France",
			Description: "Banque française", Website: "https://www.societegenerale.com"},
		env: 65, social: 72, gov: 85, ethics: 78, certs: []string{"ISO 26000"},
	},
	{
		company: model.Company{SIREN: "775676943", Name: "Bouygues", Sector: "BTP", Size: model.SizeLarge, Country: "France",
			Description: "Groupe de construction et télécoms", Website: "https://www.bouygues.com"},
		env: 68, social: 70, gov: 75, ethics: 72, certs: []string{"ISO 14001"},
	},
	{
		company: model.Company{SIREN: "123456789", Name: "EcoTech Solutions", Sector: "Technologie", Size: model.SizeMedium, Country: "France",
			Description: "Solutions numériques sobres en énergie", Website: "https://www.ecotech-solutions.fr"},
		env: 85, social: 80, gov: 75, ethics: 88, certs: []string{"B-Corp"},
	},
	{
		company: model.Company{SIREN: "987654321", Name: "Bio & Local", Sector: "Agroalimentaire", Size: model.SizeSmall, Country: "France",
			Description: "Distribution de produits biologiques en circuit court", Website: "https://www.bio-et-local.fr"},
		env: 92, social: 88, gov: 70, ethics: 85, certs: []string{"B-Corp"},
	},
	{
		company: model.Company{SIREN: "456789123", Name: "GreenBuild", Sector: "BTP", Size: model.SizeMedium, Country: "France",
			Description: "Construction bois et matériaux biosourcés", Website: "https://www.greenbuild.fr"},
		env: 88, social: 82, gov: 78, ethics: 80, certs: []string{"ISO 14001"},
	},
}

// Seed loads the built-in dataset, companies and scores both. Existing
// records with the same SIREN are replaced.
func (im *Importer) Seed(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	for _, entry := range seedData {
		c := entry.company
		if err := im.store.UpsertCompany(ctx, &c); err != nil {
			return 0, eris.Wrapf(err, "seed: company %s", c.SIREN)
		}

		env, social, gov, ethics := entry.env, entry.social, entry.gov, entry.ethics
		global := scoring.GlobalScore(&env, &social, &gov, &ethics)

		score := &model.Score{
			CompanyID:     c.ID,
			Environmental: &env,
			Social:        &social,
			Governance:    &gov,
			Ethics:        &ethics,
			GlobalScore:   global,
			RatingLetter:  scoring.Rate(global),
			Metrics: model.Metrics{
				Certifications: entry.certs,
			},
			DataSources:  []string{"portail_rse", "ademe", "insee"},
			LastUpdated:  now,
			QualityScore: 75,
		}
		if err := im.store.UpsertScore(ctx, score); err != nil {
			return 0, eris.Wrapf(err, "seed: score for %s", c.SIREN)
		}
	}

	zap.L().Info("seed data loaded", zap.Int("companies", len(seedData)))
	return len(seedData), nil
}
