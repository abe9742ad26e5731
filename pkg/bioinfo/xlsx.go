package bioinfo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
)

// cellValue flattens a record value for a spreadsheet cell: value
// sequences join with commas, structured values render as JSON.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, json.Number, int, int64, float64, bool:
		return val
	case []string:
		return strings.Join(val, ", ")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// WriteRecordsXlsx exports the merged record set as a review workbook,
// one row per sample, columns in record field order.
func WriteRecordsXlsx(records []*Record, path string) error {
	xlsx := excelize.NewFile()
	const sheet = "Sheet1"
	if len(records) == 0 {
		return xlsx.SaveAs(path)
	}

	title := records[0].Fields()
	xlsx.SetSheetRow(sheet, "A1", &title)
	for i, r := range records {
		row := make([]any, len(title))
		for j, field := range title {
			v, _ := r.Get(field)
			row[j] = cellValue(v)
		}
		cell := simpleUtil.HandleError(excelize.CoordinatesToCellName(1, i+2))
		xlsx.SetSheetRow(sheet, cell, &row)
	}
	return xlsx.SaveAs(path)
}
