// Package bulkimport はExcelファイルからの食品アイテム一括取込を提供する。
// 先頭シートをヘッダー付きテーブルとして読み、全行の検証が通った場合のみ
// 単一トランザクションで保存する。
package bulkimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// bulkUploadSuffix は一括取込で作成されたアイテム名に付く目印。
const bulkUploadSuffix = " [Bulk Upload]"

// Result は一括取込の結果を表す。
type Result struct {
	Count int // 保存されたアイテム数
}

// Service はExcelの解析・検証・一括保存を行う。
type Service struct {
	foodItemRepo repository.FoodItemRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewService は一括取込サービスを生成する。
func NewService(foodItemRepo repository.FoodItemRepository, logger *slog.Logger) *Service {
	return &Service{
		foodItemRepo: foodItemRepo,
		now:          time.Now,
		logger:       logger,
	}
}

// Import はExcelファイルを解析してアイテムを一括保存する。
// filenameは拡張子の検証にのみ使う。1行でも検証に失敗した場合は
// 何も保存せず、行番号付きのエラー一覧を返す。
func (s *Service) Import(ctx context.Context, stakeholderID, filename string, r io.Reader) (*Result, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return nil, model.NewValidationError(".xlsxファイルをアップロードしてください")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, model.NewValidationError("Excelファイルを読み込めません")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, model.NewValidationError("シートが見つかりません")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, model.NewValidationError("シートを読み込めません")
	}
	if len(rows) < 2 {
		return nil, model.NewValidationError("データ行がありません")
	}

	header := headerIndex(rows[0])
	items, details := s.parseRows(stakeholderID, header, rows[1:])
	if len(details) > 0 {
		apiErr := model.NewBulkImportError(details)
		// 行単位の詳細はActionに埋め込まずMessageの補足として持たせる
		apiErr.Message = apiErr.Message + " " + strings.Join(details, " ")
		return nil, apiErr
	}
	if len(items) == 0 {
		return nil, model.NewValidationError("取込対象の行がありません")
	}

	if err := s.foodItemRepo.CreateBatch(ctx, items); err != nil {
		return nil, fmt.Errorf("一括保存に失敗しました: %w", err)
	}

	s.logger.Info("bulk import completed",
		"stakeholder_id", stakeholderID,
		"count", len(items),
	)
	return &Result{Count: len(items)}, nil
}

// headerIndex はヘッダー行から正規化済み列名→列番号のマップを作る。
// 大文字小文字とアンダースコアの揺れを吸収する（例: ExpiryDate / expirydate）。
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
		if key != "" {
			index[key] = i
		}
	}
	return index
}

func cell(row []string, index map[string]int, key string) string {
	i, ok := index[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseRows は全データ行を検証してアイテムに変換する。
// 行番号はヘッダー行を含むシート上の行番号（2始まり）で報告する。
func (s *Service) parseRows(stakeholderID string, header map[string]int, dataRows [][]string) ([]*model.FoodItem, []string) {
	today := truncateToDay(s.now())
	var items []*model.FoodItem
	var details []string

	for idx, row := range dataRows {
		rowNum := idx + 2

		name := cell(row, header, "name")
		if name == "" {
			name = "Unnamed Item"
		}
		expiryRaw := cell(row, header, "expirydate")
		quantityRaw := cell(row, header, "quantity")

		if expiryRaw == "" || quantityRaw == "" {
			details = append(details, fmt.Sprintf("Row %d: Missing required fields.", rowNum))
			continue
		}

		expiryDate, err := parseExpiryDate(expiryRaw)
		if err != nil || expiryDate.Before(today) {
			details = append(details, fmt.Sprintf("Row %d: Invalid or past expiry date.", rowNum))
			continue
		}

		quantity, err := strconv.Atoi(quantityRaw)
		if err != nil || quantity <= 0 {
			details = append(details, fmt.Sprintf("Row %d: Invalid quantity.", rowNum))
			continue
		}

		items = append(items, &model.FoodItem{
			ID:             uuid.New().String(),
			StakeholderID:  stakeholderID,
			Name:           name + bulkUploadSuffix,
			ExpiryDate:     expiryDate,
			Quantity:       quantity,
			Category:       cell(row, header, "foodcategory"),
			DonationID:     cell(row, header, "donationid"),
			MeasurePerUnit: cell(row, header, "measureperunit"),
			Unit:           cell(row, header, "unit"),
		})
	}
	return items, details
}

// parseExpiryDate はセル値を日付として解釈する。
// excelizeはセル書式に応じた文字列を返すため、複数の形式を順に試す。
func parseExpiryDate(raw string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"01-02-06",
		"1/2/06",
		"01/02/2006",
		"2006/01/02",
		time.RFC3339,
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	// 書式なしセルはExcelシリアル値の可能性がある
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("日付として解釈できません: %q", raw)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
