package main

import (
	"log"
	"os"
	"time"

	"github.com/hari-334/interest-buddies/internal/model"
	"github.com/hari-334/interest-buddies/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds a demo universe: three users, two interest groups and a short chat
// history, enough to click through the app locally.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDB(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding demo data...")

	users := seedUsers(db)
	color.Green("  %d users", len(users))

	groups := seedGroups(db, users)
	color.Green("  %d groups", len(groups))

	seedMessages(db, groups[0], users)
	color.Green("  chat history for %q", groups[0].Name)

	color.Cyan("Done.")
}

func seedUsers(db *gorm.DB) []model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	hashStr := string(hash)

	users := []model.User{
		{Id: uuid.New(), Name: "Hari", Username: "hari", PasswordHash: &hashStr},
		{Id: uuid.New(), Name: "Asha", Username: "asha", PasswordHash: &hashStr},
		{Id: uuid.New(), Name: "Ravi", Username: "ravi", PasswordHash: &hashStr},
	}

	for i := range users {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&users[i]).Error
		if err != nil {
			color.Red("  failed to seed user %s: %v", users[i].Username, err)
		}
	}
	return users
}

func seedGroups(db *gorm.DB, users []model.User) []model.Group {
	groups := []model.Group{
		{Id: uuid.New(), Name: "Trekking Club", Purpose: "Weekend treks around the city", CreatedBy: users[0].Id},
		{Id: uuid.New(), Name: "Book Circle", Purpose: "One book a month, no excuses", CreatedBy: users[1].Id},
	}

	for i := range groups {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&groups[i]).Error; err != nil {
			color.Red("  failed to seed group %s: %v", groups[i].Name, err)
			continue
		}
		// Everyone joins the first group, creators join their own.
		members := []model.GroupMember{{GroupId: groups[i].Id, UserId: groups[i].CreatedBy}}
		if i == 0 {
			for _, u := range users {
				members = append(members, model.GroupMember{GroupId: groups[i].Id, UserId: u.Id})
			}
		}
		for _, m := range members {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		}
	}
	return groups
}

func seedMessages(db *gorm.DB, group model.Group, users []model.User) {
	lines := []struct {
		sender uuid.UUID
		body   string
	}{
		{users[0].Id, "Anyone up for the ridge trail on Saturday?"},
		{users[1].Id, "Count me in, what time?"},
		{users[0].Id, "6am at the usual spot."},
		{users[2].Id, "I'll bring the map."},
	}

	for _, line := range lines {
		msg := model.GroupMessage{
			Id:       uuid.New(),
			GroupId:  group.Id,
			SenderId: line.sender,
			Body:     line.body,
		}
		if err := db.Create(&msg).Error; err != nil {
			color.Red("  failed to seed message: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
