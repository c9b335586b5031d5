package db

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
)

func TestConnect_UnsupportedDriver(t *testing.T) {
	if _, err := Connect("oracle", "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAutoMigrate_UniqueBidPerFreelancer(t *testing.T) {
	gdb, err := Connect("sqlite", "file:db_unique_bid?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Connect() err=%v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate() err=%v", err)
	}

	if err := gdb.Create(&models.Bid{ProjectID: 1, FreelancerID: 2, Price: 100}).Error; err != nil {
		t.Fatalf("first bid: %v", err)
	}
	err = gdb.Create(&models.Bid{ProjectID: 1, FreelancerID: 2, Price: 90}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second bid err=%v, want ErrDuplicatedKey", err)
	}
	if err := gdb.Create(&models.Bid{ProjectID: 1, FreelancerID: 3, Price: 90}).Error; err != nil {
		t.Fatalf("other freelancer bid: %v", err)
	}
}
