package config

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// RunAllSeeding runs all seeding operations in the correct order.
// Each step is idempotent and skips rows that already exist.
func RunAllSeeding() error {
	log.Println("=== Starting Database Seeding ===")

	log.Println("\n[1/4] Seeding Default Users...")
	SeedUsers()

	log.Println("\n[2/4] Seeding Master Assets...")
	SeedAssets()

	log.Println("\n[3/4] Seeding Asset Schedules...")
	SeedSchedules()

	log.Println("\n[4/4] Seeding Checklist Templates...")
	SeedChecklistTemplates()

	log.Println("\n=== Database Seeding Complete ===")
	return nil
}

// SeedUsers creates the default inspector accounts.
func SeedUsers() {
	users := []struct {
		Name     string
		Code     string
		Org      string
		Role     string
		Password string
	}{
		{"مدیر سیستم", "1000", "نت مکانیک", "super_admin", "admin@1000"},
		{"بازرس نمونه", "2001", "نت مکانیک", "operator", "op@2001"},
	}

	for _, u := range users {
		var existing models.DefinedUser
		err := DB.Where("code = ?", u.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Printf("Warning: user lookup failed for %s: %v", u.Code, err)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Warning: could not hash password for %s: %v", u.Code, err)
			continue
		}
		user := models.DefinedUser{
			Name:         u.Name,
			Code:         u.Code,
			Org:          u.Org,
			Role:         u.Role,
			PasswordHash: string(hash),
		}
		if err := DB.Create(&user).Error; err != nil {
			log.Printf("Warning: could not seed user %s: %v", u.Code, err)
			continue
		}
		log.Printf("Seeded user %s (%s)", u.Name, u.Code)
	}
}

// SeedAssets creates a small baseline equipment master. Real deployments
// import the full asset list through the admin tooling.
func SeedAssets() {
	assets := []models.AssetMaster{
		{Code: "EQ-01", Name: "الکتروموتور نوار نقاله ۱", Description: "موتور اصلی خط انتقال", TraditionalName: "موتور نوار یک"},
		{Code: "EQ-02", Name: "پمپ سانتریفیوژ آب خنک‌کن", Description: "پمپ مدار بسته خنک‌کاری", TraditionalName: "پمپ خنک‌کن"},
		{Code: "EQ-03", Name: "گیربکس آسیاب مواد", Description: "گیربکس اصلی آسیاب", TraditionalName: "گیربکس آسیاب"},
	}

	for _, a := range assets {
		var existing models.AssetMaster
		err := DB.Where("code = ?", a.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Printf("Warning: asset lookup failed for %s: %v", a.Code, err)
			continue
		}
		if err := DB.Create(&a).Error; err != nil {
			log.Printf("Warning: could not seed asset %s: %v", a.Code, err)
		}
	}
}

// SeedSchedules links baseline job cards to the seeded assets.
func SeedSchedules() {
	schedules := []models.AssetSchedule{
		{AssetNumber: "EQ-01", JobCardCode: "INSPECTION", JobCardName: "بازرسی", PlanCode: "PL-100"},
		{AssetNumber: "EQ-01", JobCardCode: "LUBRICATION", JobCardName: "روانکاری", PlanCode: "PL-101"},
		{AssetNumber: "EQ-02", JobCardCode: "THERMOGRAPHY", JobCardName: "ترموگرافی", PlanCode: "PL-102"},
		{AssetNumber: "EQ-03", JobCardCode: "PM", JobCardName: "نگهداری و تعمیرات پیشگیرانه", PlanCode: "PL-103"},
	}

	for _, s := range schedules {
		var existing models.AssetSchedule
		err := DB.Where("asset_number = ? AND job_card_code = ?", s.AssetNumber, s.JobCardCode).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Printf("Warning: schedule lookup failed for %s/%s: %v", s.AssetNumber, s.JobCardCode, err)
			continue
		}
		if err := DB.Create(&s).Error; err != nil {
			log.Printf("Warning: could not seed schedule %s/%s: %v", s.AssetNumber, s.JobCardCode, err)
		}
	}
}

// SeedChecklistTemplates loads the baseline managed templates per job card.
// Admin imports can extend or replace these later.
func SeedChecklistTemplates() {
	templates := []models.DefinedChecklistItem{
		{JobCardCode: "INSPECTION", Sequence: 1, Task: "بازرسی ظاهری و ایمنی"},
		{JobCardCode: "INSPECTION", Sequence: 2, Task: "بررسی صدا و لرزش غیرعادی"},
		{JobCardCode: "INSPECTION", Sequence: 3, Task: "کنترل نشتی و سطوح روانکار"},
		{JobCardCode: "LUBRICATION", Sequence: 1, Task: "کنترل سطح روغن و گریس"},
		{JobCardCode: "LUBRICATION", Sequence: 2, Task: "گریس‌کاری نقاط مشخص شده"},
		{JobCardCode: "LUBRICATION", Sequence: 3, Task: "پاکسازی آلودگی اطراف گریس‌خورها"},
		{JobCardCode: "THERMOGRAPHY", Sequence: 1, Task: "بررسی دمای نقاط بحرانی"},
		{JobCardCode: "THERMOGRAPHY", Sequence: 2, Task: "شناسایی اتصال داغ و ناهنجاری دمایی"},
		{JobCardCode: "THERMOGRAPHY", Sequence: 3, Task: "ثبت مقادیر دما و مقایسه با روند قبلی"},
		{JobCardCode: "PM", Sequence: 1, Task: "کنترل سفتی اتصالات و پیچ‌ها"},
		{JobCardCode: "PM", Sequence: 2, Task: "تمیزکاری موضعی و رفع آلودگی"},
		{JobCardCode: "PM", Sequence: 3, Task: "بررسی عملکرد تجهیز پس از سرویس"},
	}

	for _, t := range templates {
		var existing models.DefinedChecklistItem
		err := DB.Where("job_card_code = ? AND sequence = ?", t.JobCardCode, t.Sequence).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Printf("Warning: template lookup failed for %s/%d: %v", t.JobCardCode, t.Sequence, err)
			continue
		}
		if err := DB.Create(&t).Error; err != nil {
			log.Printf("Warning: could not seed template %s/%d: %v", t.JobCardCode, t.Sequence, err)
		}
	}
}
