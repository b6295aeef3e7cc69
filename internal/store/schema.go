package store

// Table names.
const (
	TypesTable  = "rtti_types"
	AttrsTable  = "rtti_attrs"
	BasesTable  = "rtti_bases"
	ValuesTable = "rtti_values"
)

// Tables lists the catalog tables in insert order.
var Tables = []string{TypesTable, AttrsTable, BasesTable, ValuesTable}

var columns = map[string][]string{
	TypesTable:  {"catalog", "position", "name", "kind", "version", "flags", "size", "base_type", "messages"},
	AttrsTable:  {"catalog", "type_name", "position", "name", "attr_type", "category", "is_category", "offset", "flags", "is_property", "min_value", "max_value"},
	BasesTable:  {"catalog", "type_name", "position", "base_name", "offset"},
	ValuesTable: {"catalog", "type_name", "position", "name", "value", "aliases"},
}

// Columns returns the insert columns of table.
func Columns(table string) []string {
	return columns[table]
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rtti_types (
    catalog VARCHAR(64) NOT NULL,
    position INT UNSIGNED NOT NULL,
    name VARCHAR(255) NOT NULL,
    kind VARCHAR(16) NOT NULL,
    version INT UNSIGNED NULL,
    flags SMALLINT UNSIGNED NULL,
    size TINYINT UNSIGNED NULL,
    base_type VARCHAR(255) NULL,
    messages TEXT NULL,
    PRIMARY KEY (catalog, position),
    KEY idx_rtti_types_name (catalog, name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rtti_attrs (
    catalog VARCHAR(64) NOT NULL,
    type_name VARCHAR(255) NOT NULL,
    position INT UNSIGNED NOT NULL,
    name VARCHAR(255) NULL,
    attr_type VARCHAR(512) NULL,
    category VARCHAR(255) NULL,
    is_category TINYINT(1) NOT NULL,
    offset SMALLINT UNSIGNED NULL,
    flags SMALLINT UNSIGNED NULL,
    is_property TINYINT(1) NOT NULL,
    min_value VARCHAR(64) NULL,
    max_value VARCHAR(64) NULL,
    PRIMARY KEY (catalog, type_name, position)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rtti_bases (
    catalog VARCHAR(64) NOT NULL,
    type_name VARCHAR(255) NOT NULL,
    position INT UNSIGNED NOT NULL,
    base_name VARCHAR(255) NOT NULL,
    offset BIGINT UNSIGNED NOT NULL,
    PRIMARY KEY (catalog, type_name, position)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rtti_values (
    catalog VARCHAR(64) NOT NULL,
    type_name VARCHAR(255) NOT NULL,
    position INT UNSIGNED NOT NULL,
    name VARCHAR(255) NOT NULL,
    value BIGINT NOT NULL,
    aliases TEXT NULL,
    PRIMARY KEY (catalog, type_name, position)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
