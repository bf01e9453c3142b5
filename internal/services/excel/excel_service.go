package excel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// Service handles Excel exports of campaign participation data
type Service struct {
	campaignRepo      *repository.CampaignRepository
	participationRepo *repository.ParticipationRepository
	exportsDir        string
}

// NewExcelService creates a new Excel service instance
func NewExcelService(
	campaignRepo *repository.CampaignRepository,
	participationRepo *repository.ParticipationRepository,
	exportsDir string) *Service {
	// Create exports directory if it doesn't exist
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		os.MkdirAll(exportsDir, 0755)
	}

	return &Service{
		campaignRepo:      campaignRepo,
		participationRepo: participationRepo,
		exportsDir:        exportsDir,
	}
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Success  bool
	Message  string
	Filename string
	FilePath string
}

// ExportCampaignParticipations exports all participations of a campaign to an Excel file.
// Contact-data columns are discovered from the records so custom form fields show up
// without any schema knowledge.
func (s *Service) ExportCampaignParticipations(campaignID string) (*ExportResult, error) {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	participations, err := s.participationRepo.GetAllByCampaignID(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations: %w", err)
	}

	timestamp := time.Now().Unix()
	filename := fmt.Sprintf("participations_%s_%d.xlsx", campaign.Slug, timestamp)
	filePath := filepath.Join(s.exportsDir, filename)

	// Decode contact data once and collect the union of keys
	contactData := make([]map[string]interface{}, len(participations))
	extraKeySet := make(map[string]bool)
	for i, p := range participations {
		if len(p.ContactData) == 0 {
			continue
		}
		var data map[string]interface{}
		if err := json.Unmarshal(p.ContactData, &data); err != nil {
			continue
		}
		contactData[i] = data
		for key := range data {
			extraKeySet[key] = true
		}
	}

	extraColumns := make([]string, 0, len(extraKeySet))
	for key := range extraKeySet {
		extraColumns = append(extraColumns, key)
	}
	sort.Strings(extraColumns)

	columns := []string{
		"id", "email", "ip_address", "device_fingerprint",
		"result", "prize_label", "created_at",
	}
	columns = append(columns, extraColumns...)

	f := excelize.NewFile()

	winStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"C6EFCE"}, // Light green
			Pattern: 1,
		},
	})

	pendingStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"}, // Gray
			Pattern: 1,
		},
	})

	sheetName := "Participations"
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	// Write headers
	for i, col := range columns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(sheetName, cell, col)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(columns))+strconv.Itoa(1), headerStyle)
	}

	// Set column widths
	for i, col := range columns {
		colLetter := columnToLetter(i + 1)
		width := 20.0 // Default width

		switch col {
		case "id", "device_fingerprint":
			width = 38.0
		case "email":
			width = 30.0
		case "ip_address":
			width = 18.0
		case "result":
			width = 12.0
		case "prize_label":
			width = 25.0
		case "created_at":
			width = 22.0
		}

		f.SetColWidth(sheetName, colLetter, colLetter, width)
	}

	if len(participations) > 0 {
		for j, p := range participations {
			rowNum := j + 2 // Start from row 2 (after headers)

			f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), p.ID)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), p.Email)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), p.IPAddress)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), p.DeviceFingerprint)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), p.Result)
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), p.PrizeLabel)
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowNum), p.CreatedAt.Format(time.RFC3339))

			for k, key := range extraColumns {
				if contactData[j] == nil {
					continue
				}
				if value, ok := contactData[j][key]; ok {
					cell := fmt.Sprintf("%s%d", columnToLetter(8+k), rowNum)
					f.SetCellValue(sheetName, cell, fmt.Sprintf("%v", value))
				}
			}

			switch p.Result {
			case models.ResultWin:
				f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), winStyle)
			case models.ResultPending:
				f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), pendingStyle)
			}
		}
	} else {
		f.SetCellValue(sheetName, "A2", "no participations found for this campaign")
	}

	if err := f.SaveAs(filePath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	return &ExportResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully exported %d participations for campaign %s", len(participations), campaign.Slug),
		Filename: filename,
		FilePath: filePath,
	}, nil
}

// Helper function to convert column number to Excel column letter
func columnToLetter(col int) string {
	var result string
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
