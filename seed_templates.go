package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"ehrm-server/config"
)

type templateSeed struct {
	Trigger       string
	TitleTemplate string
	BodyTemplate  string
}

type shiftSeed struct {
	Name             string
	StartTime        string
	EndTime          string
	ToleranceMinutes int
	IsDefault        bool
}

// seedDefaults inserts the default notification templates and shifts.
// Runs after migration; existing rows are left alone so operator edits
// survive restarts.
func seedDefaults() {
	cfg := config.AppConfig.Database
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Printf("❌ Seed: failed to open database: %v", err)
		return
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Printf("❌ Seed: failed to ping database: %v", err)
		return
	}

	seedTemplates(db)
	seedShifts(db)
}

func seedTemplates(db *sql.DB) {
	templates := []templateSeed{
		{
			Trigger:       "pengajuan_dibuat",
			TitleTemplate: "Persetujuan Dibutuhkan",
			BodyTemplate:  "{nama} mengajukan {kategori}. Mohon ditinjau.",
		},
		{
			Trigger:       "pengajuan_disetujui",
			TitleTemplate: "Pengajuan Disetujui",
			BodyTemplate:  "Pengajuan {kategori} Anda telah disetujui.",
		},
		{
			Trigger:       "pengajuan_ditolak",
			TitleTemplate: "Pengajuan Ditolak",
			BodyTemplate:  "Pengajuan {kategori} Anda ditolak. Catatan: {catatan}",
		},
		{
			Trigger:       "pengajuan_naik_level",
			TitleTemplate: "Pengajuan Diproses",
			BodyTemplate:  "Pengajuan {kategori} Anda lolos tahap {level} dan sedang diproses lebih lanjut.",
		},
		{
			Trigger:       "pengingat_persetujuan",
			TitleTemplate: "Pengingat Persetujuan",
			BodyTemplate:  "Pengajuan {kategori} dari {nama} masih menunggu keputusan Anda.",
		},
	}

	inserted := 0
	for _, t := range templates {
		result, err := db.Exec(`
			INSERT INTO notification_templates (trigger_key, title_template, body_template, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, true, NOW(), NOW())
			ON CONFLICT (trigger_key) DO NOTHING`,
			t.Trigger, t.TitleTemplate, t.BodyTemplate)
		if err != nil {
			log.Printf("❌ Seed: failed to insert template %s: %v", t.Trigger, err)
			continue
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if inserted > 0 {
		log.Printf("✅ Seeded %d notification templates", inserted)
	}
}

func seedShifts(db *sql.DB) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM shifts WHERE deleted_at IS NULL").Scan(&count); err != nil {
		log.Printf("❌ Seed: failed to check shifts: %v", err)
		return
	}
	if count > 0 {
		return
	}

	tolerance := config.AppConfig.Attendance.DefaultToleranceMinutes
	shifts := []shiftSeed{
		{Name: "Reguler", StartTime: "08:00", EndTime: "17:00", ToleranceMinutes: tolerance, IsDefault: true},
		{Name: "Pagi", StartTime: "06:00", EndTime: "14:00", ToleranceMinutes: tolerance},
		{Name: "Siang", StartTime: "14:00", EndTime: "22:00", ToleranceMinutes: tolerance},
	}

	for _, s := range shifts {
		_, err := db.Exec(`
			INSERT INTO shifts (name, start_time, end_time, tolerance_minutes, is_default, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`,
			s.Name, s.StartTime, s.EndTime, s.ToleranceMinutes, s.IsDefault)
		if err != nil {
			log.Printf("❌ Seed: failed to insert shift %s: %v", s.Name, err)
		}
	}
	log.Printf("✅ Seeded %d default shifts", len(shifts))
}
