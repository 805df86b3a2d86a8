package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stocklens/internal/db"
)

// reportTable is a flat report ready for JSON or spreadsheet output
type reportTable struct {
	Title   string          `json:"title"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Report builds one of the flat reports as JSON.
// GET /api/reports?type=stock|movement|orders&date_from=&date_to=
func Report(w http.ResponseWriter, r *http.Request) {
	table, err := buildReport(r)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	JSONResponse(w, table)
}

// ExportReport renders the same report as an XLSX download.
// GET /api/reports/export?type=stock|movement|orders&date_from=&date_to=
func ExportReport(w http.ResponseWriter, r *http.Request) {
	table, err := buildReport(r)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, name := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	for rowIdx, row := range table.Rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("%s-%s.xlsx",
		r.URL.Query().Get("type"), time.Now().Format("20060102"))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(w); err != nil {
		log.Printf("❌ Write report workbook: %v", err)
	}
}

func buildReport(r *http.Request) (*reportTable, error) {
	q := r.URL.Query()
	switch q.Get("type") {
	case "stock":
		return stockReport()
	case "movement":
		return movementReport(q.Get("date_from"), q.Get("date_to"))
	case "orders":
		return ordersReport(q.Get("status"))
	default:
		return nil, fmt.Errorf("type must be stock, movement or orders")
	}
}

func stockReport() (*reportTable, error) {
	table := &reportTable{
		Title:   "Stock Report",
		Columns: []string{"Code", "Name", "Category", "Stock", "Min", "Max", "Unit", "Price", "Value"},
	}

	page := 1
	for {
		items, pagination, err := db.ListItems(db.ItemFilter{Page: page, PerPage: 100})
		if err != nil {
			return nil, fmt.Errorf("stock report failed")
		}
		for _, item := range items {
			value := item.Price.Mul(decimal.NewFromInt(int64(item.StockQty)))
			table.Rows = append(table.Rows, []interface{}{
				item.Code, item.Name, item.CategoryName, item.StockQty,
				item.MinStock, item.MaxStock, item.Unit,
				item.Price.StringFixed(2), value.StringFixed(2),
			})
		}
		if page >= pagination.Total {
			break
		}
		page++
	}
	return table, nil
}

func movementReport(dateFrom, dateTo string) (*reportTable, error) {
	table := &reportTable{
		Title:   "Movement Report",
		Columns: []string{"Date", "Code", "Direction", "Item", "Qty", "Detail", "Recorded"},
	}

	page := 1
	for {
		entries, pagination, err := db.ListStockIn(db.StockFilter{
			DateFrom: dateFrom, DateTo: dateTo, Page: page, PerPage: 100})
		if err != nil {
			return nil, fmt.Errorf("movement report failed")
		}
		for _, e := range entries {
			table.Rows = append(table.Rows, []interface{}{
				e.Date, e.TransactionCode, "in", e.ItemName, e.Qty,
				e.SupplierName, e.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		if page >= pagination.Total {
			break
		}
		page++
	}

	page = 1
	for {
		entries, pagination, err := db.ListStockOut(db.StockFilter{
			DateFrom: dateFrom, DateTo: dateTo, Page: page, PerPage: 100})
		if err != nil {
			return nil, fmt.Errorf("movement report failed")
		}
		for _, e := range entries {
			table.Rows = append(table.Rows, []interface{}{
				e.Date, e.TransactionCode, "out", e.ItemName, e.Qty,
				e.Purpose, e.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		if page >= pagination.Total {
			break
		}
		page++
	}
	return table, nil
}

func ordersReport(status string) (*reportTable, error) {
	table := &reportTable{
		Title:   "Orders Report",
		Columns: []string{"Code", "Supplier", "Status", "Items", "Total", "Ordered", "Confirmed"},
	}

	page := 1
	for {
		orders, pagination, err := db.ListOrders(db.OrderFilter{
			Status: status, Page: page, PerPage: 100})
		if err != nil {
			return nil, fmt.Errorf("orders report failed")
		}
		for _, o := range orders {
			confirmed := ""
			if o.ConfirmedAt != nil {
				confirmed = o.ConfirmedAt.Format("2006-01-02 15:04")
			}
			table.Rows = append(table.Rows, []interface{}{
				o.OrderCode, o.SupplierName, o.Status, o.ItemCount,
				o.TotalAmount.StringFixed(2),
				o.OrderDate.Format("2006-01-02 15:04"), confirmed,
			})
		}
		if page >= pagination.Total {
			break
		}
		page++
	}
	return table, nil
}

// RegisterReportRoutes wires the report endpoints
func RegisterReportRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/reports", protect(Report))
	mux.HandleFunc("GET /api/reports/export", protect(ExportReport))
}
