package seeders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/bazaar/app/models"
)

func init() {
	Register("catalog", SeedCatalog)
}

const placeholderImage = "https://placehold.co/600x400.png"
const placeholderAvatar = "https://placehold.co/100x100.png"

type sampleReview struct {
	user    string
	rating  int
	comment string
}

type sampleListing struct {
	title       string
	description string
	price       float64
	category    string
	kind        string
	condition   string
	seller      string
	reviews     []sampleReview
}

var sampleCatalog = []sampleListing{
	{
		title:       "Vintage Leather Sofa",
		description: "A beautiful vintage leather sofa, perfect for adding a touch of classic style to any living room. Comfortably seats three people. Minor wear and tear consistent with age, but in great overall condition.",
		price:       450,
		category:    models.CategoryFurniture,
		kind:        models.TypeSale,
		condition:   models.ConditionUsed,
		seller:      "Alice Johnson",
		reviews:     []sampleReview{{"Bob", 5, "Amazing sofa, exactly as described!"}},
	},
	{
		title:       "Modern City Apartment",
		description: "Spacious 2-bedroom apartment in the heart of the city. Features a modern kitchen, balcony with a view, and access to a gym and pool. Available for short-term or long-term rent.",
		price:       2500,
		category:    models.CategoryRealEstate,
		kind:        models.TypeRent,
		condition:   models.ConditionUsed,
		seller:      "Real Estate Co.",
		reviews:     []sampleReview{{"Charlie", 4, "Great location, but a bit noisy."}},
	},
	{
		title:       "Smartphone X12",
		description: "Latest model smartphone with a stunning OLED display, 128GB storage, and a pro-grade camera system. Unlocked and compatible with all major carriers. Brand new in box.",
		price:       899,
		category:    models.CategoryElectronics,
		kind:        models.TypeSale,
		condition:   models.ConditionNew,
		seller:      "Tech Resellers",
	},
	{
		title:       "2022 Sedan",
		description: "A reliable and fuel-efficient 2022 sedan with low mileage. Perfect for city driving and road trips. Features include a rearview camera, Bluetooth connectivity, and advanced safety systems.",
		price:       150,
		category:    models.CategoryVehicles,
		kind:        models.TypeRent,
		condition:   models.ConditionUsed,
		seller:      "City Car Rentals",
		reviews:     []sampleReview{{"Diana", 5, "Clean car, easy rental process."}},
	},
	{
		title:       "Stainless Steel Refrigerator",
		description: "Large capacity stainless steel refrigerator with a built-in ice maker and water dispenser. Energy efficient and in excellent working condition. A few minor scratches on the side.",
		price:       600,
		category:    models.CategoryAppliances,
		kind:        models.TypeSale,
		condition:   models.ConditionUsed,
		seller:      "Frank White",
	},
	{
		title:       "Professional DSLR Camera Kit",
		description: "Full DSLR camera kit available for rent. Includes camera body, 24-70mm lens, 50mm prime lens, two batteries, and a carrying case. Ideal for professional photoshoots or events.",
		price:       75,
		category:    models.CategoryElectronics,
		kind:        models.TypeRent,
		condition:   models.ConditionUsed,
		seller:      "Lens Masters",
		reviews:     []sampleReview{{"Grace", 5, "Great gear, very well maintained."}},
	},
}

// seedID derives a stable id so re-seeding does not duplicate rows.
func seedID(parts ...string) string {
	name := "bazaar:seed"
	for _, p := range parts {
		name += ":" + p
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// SeedCatalog inserts the sample listings and their reviews. Existing rows
// are left alone.
func SeedCatalog(db *gorm.DB) error {
	base := time.Now().Add(-time.Duration(len(sampleCatalog)) * time.Hour).UTC()

	return db.Transaction(func(tx *gorm.DB) error {
		for i, s := range sampleCatalog {
			created := base.Add(time.Duration(i) * time.Hour)
			p := models.Product{
				ID:          seedID("product", s.title),
				Title:       s.title,
				Description: s.description,
				Price:       s.price,
				Category:    s.category,
				Type:        s.kind,
				Condition:   s.condition,
				ImageURL:    placeholderImage,
				Seller: models.Seller{
					ID:     seedID("seller", s.seller),
					Name:   s.seller,
					Avatar: placeholderAvatar,
				},
				CreatedAt: created,
				UpdatedAt: created,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
				return err
			}

			for j, r := range s.reviews {
				rv := models.Review{
					ID:        seedID("review", s.title, r.user),
					ProductID: p.ID,
					UserID:    seedID("reviewer", r.user),
					User:      r.user,
					Avatar:    placeholderAvatar,
					Rating:    r.rating,
					Comment:   r.comment,
					CreatedAt: created.Add(time.Duration(j+1) * time.Minute),
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rv).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
