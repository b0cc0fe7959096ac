package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quizzerbot/quiz_bot/internal/models"
)

// Dumps one quiz session's scoreboard to an xlsx file, newest session by
// default. Usage: export_scores [-session N] [-out scores.xlsx]
func main() {
	sessionFlag := flag.Int("session", 0, "session id to export (0 = most recent)")
	outFlag := flag.String("out", "scores.xlsx", "output file")
	flag.Parse()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	var session models.QuizSession
	query := db.Order("start_time DESC")
	if *sessionFlag > 0 {
		query = db.Where("session_id = ?", *sessionFlag)
	}
	if err := query.First(&session).Error; err != nil {
		log.Fatal("session not found:", err)
	}

	var scores []models.Score
	if err := db.Where("session_id = ?", session.SessionID).
		Order("score DESC").
		Find(&scores).Error; err != nil {
		log.Fatal("failed to load scores:", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Rank", "User ID", "Score", "Last Update"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, s := range scores {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), strconv.FormatInt(s.UserID, 10))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), s.Score)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := f.SaveAs(*outFlag); err != nil {
		log.Fatal("failed to save file:", err)
	}

	fmt.Printf("Exported %d scores from session #%d to %s\n", len(scores), session.SessionID, *outFlag)
}
