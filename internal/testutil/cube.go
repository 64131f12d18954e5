package testutil

import (
	"github.com/roach88/pivotql/internal/cube"
)

// Hierarchy keys of the Sales fixture.
var (
	DateHierarchy     = cube.HierarchyKey{Dimension: "Date", Hierarchy: "Date"}
	CityHierarchy     = cube.HierarchyKey{Dimension: "Geography", Hierarchy: "City"}
	CurrencyHierarchy = cube.HierarchyKey{Dimension: "Currency", Hierarchy: "Currency"}
	ProductHierarchy  = cube.HierarchyKey{Dimension: "Product", Hierarchy: "Product"}
	MeasuresHierarchy = cube.HierarchyKey{Dimension: cube.MeasuresDimension, Hierarchy: cube.MeasuresDimension}
	BranchHierarchy   = cube.HierarchyKey{Dimension: cube.BranchDimension, Hierarchy: cube.BranchHierarchy}
)

// Level keys of the Sales fixture.
var (
	YearLevel     = cube.LevelKey{Dimension: "Date", Hierarchy: "Date", Level: "Year"}
	MonthLevel    = cube.LevelKey{Dimension: "Date", Hierarchy: "Date", Level: "Month"}
	DayLevel      = cube.LevelKey{Dimension: "Date", Hierarchy: "Date", Level: "Day"}
	CountryLevel  = cube.LevelKey{Dimension: "Geography", Hierarchy: "City", Level: "Country"}
	CityLevel     = cube.LevelKey{Dimension: "Geography", Hierarchy: "City", Level: "City"}
	CurrencyLevel = cube.LevelKey{Dimension: "Currency", Hierarchy: "Currency", Level: "Currency"}
	CategoryLevel = cube.LevelKey{Dimension: "Product", Hierarchy: "Product", Level: "Category"}
	ProductLevel  = cube.LevelKey{Dimension: "Product", Hierarchy: "Product", Level: "Product"}
)

// SalesCube returns a fresh copy of the Sales fixture:
//
//	[Date].[Date]           Year (int) > Month > Day (LocalDate[yyyy-MM-dd])
//	[Geography].[City]      Country > City
//	[Currency].[Currency]   Currency            (slicing)
//	[Product].[Product]     Category > Product
//
// with measures Price.SUM, Quantity.SUM, contributors.COUNT and a measure
// whose name contains a closing bracket.
func SalesCube() *cube.Cube {
	c, err := cube.New("Sales",
		[]*cube.Dimension{
			{Name: "Date", Hierarchies: []*cube.Hierarchy{{
				Name: "Date",
				Levels: []*cube.Level{
					{Name: "Year", Type: cube.ParseLevelType("int")},
					{Name: "Month", Type: cube.ParseLevelType("String")},
					{Name: "Day", Type: cube.ParseLevelType("LocalDate[yyyy-MM-dd]")},
				},
			}}},
			{Name: "Geography", Hierarchies: []*cube.Hierarchy{{
				Name: "City",
				Levels: []*cube.Level{
					{Name: "Country", Type: cube.ParseLevelType("String")},
					{Name: "City", Type: cube.ParseLevelType("String")},
				},
			}}},
			{Name: "Currency", Hierarchies: []*cube.Hierarchy{{
				Name:    "Currency",
				Slicing: true,
				Levels:  []*cube.Level{{Name: "Currency", Type: cube.ParseLevelType("String")}},
			}}},
			{Name: "Product", Hierarchies: []*cube.Hierarchy{{
				Name: "Product",
				Levels: []*cube.Level{
					{Name: "Category", Caption: "Product category", Type: cube.ParseLevelType("String")},
					{Name: "Product", Type: cube.ParseLevelType("String")},
				},
			}}},
		},
		[]*cube.Measure{
			{Name: "Price.SUM", Caption: "Price", Visible: true, FormatString: "#,###.00"},
			{Name: "Quantity.SUM", Caption: "Quantity", Visible: true},
			{Name: "contributors.COUNT", Caption: "Count", Visible: true},
			{Name: "Margin]Adj.SUM", Caption: "Adjusted margin", Visible: false, Folder: "Risk"},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// SalesDiscovery wraps SalesCube in a single-cube discovery document.
func SalesDiscovery() *cube.Discovery {
	return &cube.Discovery{Cubes: []*cube.Cube{SalesCube()}}
}
