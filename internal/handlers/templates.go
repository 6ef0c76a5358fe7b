package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/ordersheet/backend/internal/csvio"
	"github.com/ordersheet/backend/internal/importer"
)

// DownloadTemplate serves a starter file for a variant: the schema header
// (required columns first) plus one example row, as CSV or XLSX.
func (a *API) DownloadTemplate(c *gin.Context) {
	variant := c.Param("variant")
	schema, err := importer.SchemaFor(variant, a.schemaOptions())
	if err != nil {
		errJSON(c, http.StatusNotFound, err.Error())
		return
	}

	rows := [][]string{schema.Columns(), schema.ExampleRow()}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		var buf bytes.Buffer
		if err := csvio.WriteAll(&buf, rows); err != nil {
			errJSON(c, http.StatusInternalServerError, "failed to render template")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.csv"`, variant))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())

	case "xlsx":
		data, err := renderXLSX(rows)
		if err != nil {
			errJSON(c, http.StatusInternalServerError, "failed to render template")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.xlsx"`, variant))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	default:
		errJSON(c, http.StatusBadRequest, "format must be csv or xlsx")
	}
}

func renderXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for ri, row := range rows {
		for ci, val := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
