package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// northwindDDL is a trimmed Northwind schema: five tables, four foreign
// keys, one table name with a space.
const northwindDDL = `
CREATE TABLE Categories (
	CategoryID INTEGER PRIMARY KEY,
	CategoryName TEXT NOT NULL
);
CREATE TABLE Customers (
	CustomerID TEXT PRIMARY KEY,
	CompanyName TEXT NOT NULL,
	Country TEXT
);
CREATE TABLE Products (
	ProductID INTEGER PRIMARY KEY,
	ProductName TEXT NOT NULL,
	CategoryID INTEGER REFERENCES Categories(CategoryID),
	UnitPrice REAL
);
CREATE TABLE Orders (
	OrderID INTEGER PRIMARY KEY,
	CustomerID TEXT REFERENCES Customers(CustomerID),
	OrderDate TEXT,
	ShippedDate TEXT,
	Freight REAL
);
CREATE TABLE "Order Details" (
	OrderID INTEGER REFERENCES Orders(OrderID),
	ProductID INTEGER REFERENCES Products(ProductID),
	UnitPrice REAL,
	Quantity INTEGER,
	PRIMARY KEY (OrderID, ProductID)
);
`

// NorthwindOrderMonths is the number of distinct months covered by the
// fixture's orders, one order per month starting 2023-01.
const NorthwindOrderMonths = 8

// NewNorthwindDB writes a small Northwind-shaped SQLite file into a temp dir
// and returns its path. The file is removed when the test ends.
func NewNorthwindDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "northwind.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	_, err = db.Exec(northwindDDL)
	require.NoError(t, err)

	stmts := []string{
		`INSERT INTO Categories VALUES (1, 'Beverages'), (2, 'Condiments'), (3, 'Seafood')`,
		`INSERT INTO Customers VALUES ('ALFKI', 'Alfreds Futterkiste', 'Germany'),
			('ANATR', 'Ana Trujillo', 'Mexico'), ('BERGS', 'Berglunds snabbkop', 'Sweden')`,
		`INSERT INTO Products VALUES (1, 'Chai', 1, 18.0), (2, 'Aniseed Syrup', 2, 10.0),
			(3, 'Ikura', 3, 31.0)`,
	}
	customers := []string{"ALFKI", "ANATR", "BERGS"}
	for i := 0; i < NorthwindOrderMonths; i++ {
		orderID := 10248 + i
		stmts = append(stmts,
			fmt.Sprintf(`INSERT INTO Orders VALUES (%d, '%s', '2023-%02d-15', NULL, %d.5)`,
				orderID, customers[i%len(customers)], i+1, 10+i*3),
			fmt.Sprintf(`INSERT INTO "Order Details" VALUES (%d, %d, 18.0, %d)`,
				orderID, i%3+1, 5+i*2),
		)
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}
