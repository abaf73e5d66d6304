package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querypilot/internal/domain"
	"querypilot/internal/engine"
	"querypilot/internal/testutil"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func openNorthwind(t *testing.T) *engine.Warehouse {
	t.Helper()
	w, err := engine.Open(context.Background(), engine.Options{Driver: engine.DriverSQLite, DSN: testutil.NewNorthwindDB(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestExtract_Northwind(t *testing.T) {
	t.Parallel()
	snap, err := Extract(context.Background(), openNorthwind(t), discardLogger())
	require.NoError(t, err)

	assert.Len(t, snap.Tables, 5)
	assert.Equal(t, []string{"OrderID", "CustomerID", "OrderDate", "ShippedDate", "Freight"}, snap.Columns["Orders"])
	assert.Contains(t, snap.Text, "Orders(OrderID, CustomerID, OrderDate, ShippedDate, Freight)")
	assert.Contains(t, snap.Text, "Order Details(OrderID, ProductID, UnitPrice, Quantity)")
	assert.NotContains(t, snap.Text, "sqlite_")

	assert.Contains(t, snap.Relationships, domain.Relationship{
		FromTable: "Orders", FromCol: "CustomerID", ToTable: "Customers", ToCol: "CustomerID",
	})
	assert.Contains(t, snap.Relationships, domain.Relationship{
		FromTable: "Order Details", FromCol: "ProductID", ToTable: "Products", ToCol: "ProductID",
	})
	assert.Len(t, snap.Relationships, 4)
	require.NoError(t, snap.Validate())
}

func TestExtract_DropsDanglingForeignKey(t *testing.T) {
	t.Parallel()
	wh := &testutil.MockWarehouse{
		TablesFn: func(context.Context) ([]string, error) { return []string{"orders", "customers"}, nil },
		ColumnsFn: func(_ context.Context, table string) ([]string, error) {
			return map[string][]string{"orders": {"id", "cust_id", "region_id"}, "customers": {"id"}}[table], nil
		},
		ForeignKeysFn: func(_ context.Context, table string) ([]domain.ForeignKey, error) {
			if table != "orders" {
				return nil, nil
			}
			return []domain.ForeignKey{
				{Column: "cust_id", RefTable: "CUSTOMERS", RefColumn: "id"},
				{Column: "region_id", RefTable: "regions", RefColumn: "id"},
			}, nil
		},
	}
	snap, err := Extract(context.Background(), wh, discardLogger())
	require.NoError(t, err)
	require.Len(t, snap.Relationships, 1)
	assert.Equal(t, "customers", snap.Relationships[0].ToTable)
	assert.Equal(t, "orders(id, cust_id, region_id)\ncustomers(id)", snap.Text)
}

func TestExtract_TablesError(t *testing.T) {
	t.Parallel()
	wh := &testutil.MockWarehouse{
		TablesFn: func(context.Context) ([]string, error) { return nil, errors.New("disk gone") },
	}
	_, err := Extract(context.Background(), wh, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestProfileDateRanges(t *testing.T) {
	t.Parallel()

	t.Run("northwind", func(t *testing.T) {
		t.Parallel()
		wh := openNorthwind(t)
		snap, err := Extract(context.Background(), wh, discardLogger())
		require.NoError(t, err)

		ranges := ProfileDateRanges(context.Background(), wh, snap, time.Second, discardLogger())
		assert.Equal(t, domain.DateRange{Min: "2023-01-15", Max: "2023-08-15"}, ranges["Orders"]["OrderDate"])
		_, ok := ranges["Orders"]["ShippedDate"]
		assert.False(t, ok, "all-NULL column omitted")
		_, ok = ranges["Customers"]
		assert.False(t, ok, "table without date columns omitted")
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		t.Parallel()
		snap := &domain.SchemaSnapshot{
			Tables:  []string{"t"},
			Columns: map[string][]string{"t": {"StartDate", "EndDate", "Amount"}},
		}
		wh := &testutil.MockWarehouse{
			MinMaxFn: func(_ context.Context, _, column string) (string, string, bool, error) {
				if column == "StartDate" {
					return "", "", false, errors.New("incompatible type")
				}
				return "2020-01-01", "2020-12-31", true, nil
			},
		}
		ranges := ProfileDateRanges(context.Background(), wh, snap, 0, discardLogger())
		assert.Equal(t, domain.DateRanges{"t": {"EndDate": {Min: "2020-01-01", Max: "2020-12-31"}}}, ranges)
	})
}

func TestCatalog_ReloadKeepsPreviousStateOnFailure(t *testing.T) {
	t.Parallel()
	fail := false
	wh := &testutil.MockWarehouse{
		TablesFn: func(context.Context) ([]string, error) {
			if fail {
				return nil, errors.New("unreachable")
			}
			return []string{"sales"}, nil
		},
		ColumnsFn: func(context.Context, string) ([]string, error) { return []string{"month", "revenue"}, nil },
	}
	cat := New(wh, time.Second, discardLogger())
	assert.Nil(t, cat.State())

	require.NoError(t, cat.Load(context.Background()))
	first := cat.State()
	require.NotNil(t, first)
	assert.Equal(t, "sales(month, revenue)", first.Snapshot.Text)
	assert.False(t, first.LoadedAt.IsZero())

	fail = true
	_, err := cat.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, first, cat.State())
}

func TestJoinPath(t *testing.T) {
	t.Parallel()
	rel := func(s string) domain.Relationship {
		// "A.x=B.y"
		parts := strings.Split(s, "=")
		l := strings.Split(parts[0], ".")
		r := strings.Split(parts[1], ".")
		return domain.Relationship{FromTable: l[0], FromCol: l[1], ToTable: r[0], ToCol: r[1]}
	}
	snap := &domain.SchemaSnapshot{
		Tables: []string{"Orders", "Customers", "OrderDetails", "Products", "Categories", "Suppliers", "Lonely"},
		Columns: map[string][]string{
			"Orders": nil, "Customers": nil, "OrderDetails": nil, "Products": nil,
			"Categories": nil, "Suppliers": nil, "Lonely": nil,
		},
		Relationships: []domain.Relationship{
			rel("Orders.CustomerID=Customers.CustomerID"),
			rel("OrderDetails.OrderID=Orders.OrderID"),
			rel("OrderDetails.ProductID=Products.ProductID"),
			rel("Products.CategoryID=Categories.CategoryID"),
			rel("Products.SupplierID=Suppliers.SupplierID"),
			rel("Suppliers.CategoryID=Categories.CategoryID"),
		},
	}

	tests := []struct {
		name    string
		tables  []string
		want    []string
		wantErr string
	}{
		{name: "single table", tables: []string{"Orders"}, want: []string{}},
		{name: "direct", tables: []string{"Customers", "Orders"}, want: []string{
			"Orders.CustomerID = Customers.CustomerID",
		}},
		{name: "multi hop", tables: []string{"Customers", "Categories"}, want: []string{
			"Orders.CustomerID = Customers.CustomerID",
			"OrderDetails.OrderID = Orders.OrderID",
			"OrderDetails.ProductID = Products.ProductID",
			"Products.CategoryID = Categories.CategoryID",
		}},
		{name: "direct edge", tables: []string{"Products", "Categories"}, want: []string{
			"Products.CategoryID = Categories.CategoryID",
		}},
		{name: "shared prefix not repeated", tables: []string{"orders", "products", "customers"}, want: []string{
			"OrderDetails.OrderID = Orders.OrderID",
			"OrderDetails.ProductID = Products.ProductID",
			"Orders.CustomerID = Customers.CustomerID",
		}},
		{name: "unreachable", tables: []string{"Orders", "Lonely"}, wantErr: "no join path from Orders to: Lonely"},
		{name: "unknown", tables: []string{"Orders", "Nope"}, wantErr: "unknown tables: Nope"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path, err := JoinPath(snap, tc.tables)
			if tc.wantErr != "" {
				var nf *domain.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, tc.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			got := make([]string, len(path))
			for i, r := range path {
				got[i] = r.String()
			}
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := JoinPath(snap, nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

type countingReloader struct{ calls chan struct{} }

func (r *countingReloader) Reload(context.Context) (*domain.CatalogState, error) {
	select {
	case r.calls <- struct{}{}:
	default:
	}
	return &domain.CatalogState{}, nil
}

func TestScheduler(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(&countingReloader{}, "not a cron", discardLogger())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	r := &countingReloader{calls: make(chan struct{}, 1)}
	s, err := NewScheduler(r, "@every 1s", discardLogger())
	require.NoError(t, err)
	s.Start()
	defer s.Stop()
	assert.False(t, s.Next().IsZero())

	select {
	case <-r.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled reload did not run")
	}
}
