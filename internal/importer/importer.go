// Package importer provides CSV and Excel import for cover lists.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/CoverCut/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
//
// A row naming a paper size becomes a Cover. A row giving an explicit width
// and height becomes one Piece per unit of quantity.
type ImportResult struct {
	Covers   []model.Cover
	Pieces   []model.ItemInput
	Errors   []string
	Warnings []string
}

// Items expands the imported covers and appends the explicit pieces,
// giving the input list for one optimization run.
func (r ImportResult) Items() []model.ItemInput {
	items := model.ExpandCovers(r.Covers)
	return append(items, r.Pieces...)
}

// Empty reports whether nothing usable was imported.
func (r ImportResult) Empty() bool {
	return len(r.Covers) == 0 && len(r.Pieces) == 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Name     int
	Kind     int
	Size     int
	Variant  int
	Binding  int
	Spine    int
	Width    int
	Height   int
	Quantity int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":     {"name", "label", "description", "desc", "title", "item"},
	"kind":     {"kind", "type", "item type"},
	"size":     {"size", "format", "paper", "paper size", "page size"},
	"variant":  {"variant", "option"},
	"binding":  {"binding", "bind"},
	"spine":    {"spine", "spine width", "thickness"},
	"width":    {"width", "w"},
	"height":   {"height", "h"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces", "copies"},
}

// positionalMapping is used for files without a header row:
// Kind, Size, Quantity, Binding, Spine, Variant.
var positionalMapping = ColumnMapping{
	Name:     -1,
	Kind:     0,
	Size:     1,
	Quantity: 2,
	Binding:  3,
	Spine:    4,
	Variant:  5,
	Width:    -1,
	Height:   -1,
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Matching is case-insensitive against the known aliases for each role; the
// first column matching a role wins. Returns the positional mapping and false
// if no header cell was recognized.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		Name: -1, Kind: -1, Size: -1, Variant: -1, Binding: -1,
		Spine: -1, Width: -1, Height: -1, Quantity: -1,
	}
	slots := map[string]*int{
		"name":     &mapping.Name,
		"kind":     &mapping.Kind,
		"size":     &mapping.Size,
		"variant":  &mapping.Variant,
		"binding":  &mapping.Binding,
		"spine":    &mapping.Spine,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"quantity": &mapping.Quantity,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping, false
	}
	return mapping, true
}

// parseKind converts a kind string to a model.CoverKind.
// It returns the kind and a boolean indicating whether the string was recognized.
func parseKind(s string) (model.CoverKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "book", "b", "libro":
		return model.KindBook, true
	case "notebook", "n", "nb", "cuaderno":
		return model.KindNotebook, true
	default:
		return model.KindBook, false
	}
}

// parseBinding converts a binding string to a model.Binding.
func parseBinding(s string) (model.Binding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spiral", "s", "espiral":
		return model.BindingSpiral, true
	case "custom", "custom spine", "spine", "c", "lomo":
		return model.BindingCustomSpine, true
	default:
		return model.BindingSpiral, false
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePositive parses a strictly positive number, accepting a decimal comma.
// A non-empty second return value is the row's error message.
func parsePositive(rowLabel, field, s string) (float64, string) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, field, s)
	}
	if v <= 0 {
		return 0, fmt.Sprintf("%s: %s must be positive", rowLabel, strings.ToUpper(field[:1])+field[1:])
	}
	return v, ""
}

// parsedRow is one data row after parsing. Exactly one of cover or piece is set.
type parsedRow struct {
	cover    *model.Cover
	piece    *model.ItemInput
	quantity int
	warnings []string
}

// parseRow extracts a cover or an explicit piece from a row using the given
// column mapping. Returns the parsed row or an error message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (parsedRow, string) {
	var out parsedRow

	out.quantity = 1
	if qtyStr := getCell(row, mapping.Quantity); qtyStr != "" {
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return out, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr)
		}
		if qty <= 0 {
			return out, fmt.Sprintf("%s: Quantity must be positive", rowLabel)
		}
		out.quantity = qty
	}

	var spine float64
	spineStr := getCell(row, mapping.Spine)
	if spineStr != "" {
		v, msg := parsePositive(rowLabel, "spine", spineStr)
		if msg != "" {
			return out, msg
		}
		spine = v
	}

	widthStr := getCell(row, mapping.Width)
	heightStr := getCell(row, mapping.Height)
	if widthStr != "" || heightStr != "" {
		if widthStr == "" {
			return out, fmt.Sprintf("%s: Missing width value", rowLabel)
		}
		if heightStr == "" {
			return out, fmt.Sprintf("%s: Missing height value", rowLabel)
		}
		width, msg := parsePositive(rowLabel, "width", widthStr)
		if msg != "" {
			return out, msg
		}
		height, msg := parsePositive(rowLabel, "height", heightStr)
		if msg != "" {
			return out, msg
		}
		out.piece = &model.ItemInput{
			Width:  width,
			Height: height,
			Name:   getCell(row, mapping.Name),
			Spine:  spine,
		}
		return out, ""
	}

	sizeStr := getCell(row, mapping.Size)
	if sizeStr == "" {
		return out, fmt.Sprintf("%s: Missing size value", rowLabel)
	}
	ps, known := model.LookupPaperSize(sizeStr)
	if !known {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: Unknown size '%s', using %s", rowLabel, sizeStr, ps.Name))
	}

	kindStr := getCell(row, mapping.Kind)
	kind, ok := parseKind(kindStr)
	if !ok {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: Unknown kind '%s', defaulting to Book", rowLabel, kindStr))
	}

	bindingStr := getCell(row, mapping.Binding)
	binding, ok := parseBinding(bindingStr)
	if !ok {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: Unknown binding '%s', defaulting to Spiral", rowLabel, bindingStr))
	}
	if bindingStr == "" && spine > 0 {
		binding = model.BindingCustomSpine
	}
	if binding == model.BindingCustomSpine && spineStr == "" {
		spine = model.DefaultSpiralSpine
		out.warnings = append(out.warnings, fmt.Sprintf("%s: Custom spine without a width, using %.1f cm", rowLabel, model.DefaultSpiralSpine))
	}

	cover := model.NewCover(kind, ps.Name, binding, spine, out.quantity)

	// Variants are numbered from 1 in files
	if variantStr := getCell(row, mapping.Variant); variantStr != "" {
		v, err := strconv.Atoi(variantStr)
		switch {
		case err != nil || v < 1:
			return out, fmt.Sprintf("%s: Invalid variant '%s'", rowLabel, variantStr)
		case v > len(ps.Variants):
			out.warnings = append(out.warnings, fmt.Sprintf("%s: %s has no variant %d, using 1", rowLabel, ps.Name, v))
		default:
			cover.Variant = v - 1
		}
	}

	out.cover = &cover
	return out, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports a cover list from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports a cover list from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports a cover list from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile picks the CSV or Excel importer from the file extension.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		hasSize := mapping.Size != -1
		hasDims := mapping.Width != -1 && mapping.Height != -1
		if !hasSize && !hasDims {
			result.Errors = append(result.Errors, "Required columns not found in header: Size, or Width and Height")
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		parsed, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, parsed.warnings...)

		if parsed.cover != nil {
			result.Covers = append(result.Covers, *parsed.cover)
			continue
		}
		piece := *parsed.piece
		if piece.Name == "" {
			piece.Name = fmt.Sprintf("Piece %d", len(result.Pieces)+1)
		}
		for q := 0; q < parsed.quantity; q++ {
			result.Pieces = append(result.Pieces, piece)
		}
	}

	return result
}
