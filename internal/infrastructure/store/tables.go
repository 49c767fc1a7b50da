package store

// Logical table names. A deployment prefix is applied by the store.
const (
	TableUsers      = "Users"
	TableSettings   = "Settings"
	TableProfiles   = "Profiles"
	TableContracts  = "Contracts"
	TablePosts      = "Posts"
	TableReceipts   = "Receipts"
	TableMedia      = "Media"
	TableActivities = "Activities"
)

// Secondary index names
const (
	IndexRole           = "role-index"
	IndexUserID         = "userId-index"
	IndexPatronMonastic = "patronId-monasticId-index"
	IndexMonasticID     = "monasticId-index"
	IndexContractID     = "contractId-index"
)

// IndexSpec describes a global secondary index
type IndexSpec struct {
	Name     string
	HashKey  string
	RangeKey string
}

// TableSpec describes a table's primary key and its secondary indexes
type TableSpec struct {
	Name    string
	HashKey string
	Indexes []IndexSpec
}

// Index returns the named index spec
func (t TableSpec) Index(name string) (IndexSpec, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSpec{}, false
}

// KeyAttributes lists every attribute that takes part in a key of t.
func (t TableSpec) KeyAttributes() []string {
	seen := map[string]bool{t.HashKey: true}
	attrs := []string{t.HashKey}
	for _, idx := range t.Indexes {
		for _, a := range []string{idx.HashKey, idx.RangeKey} {
			if a != "" && !seen[a] {
				seen[a] = true
				attrs = append(attrs, a)
			}
		}
	}
	return attrs
}

// Tables is the schema of every table the service uses.
var Tables = []TableSpec{
	{
		Name:    TableUsers,
		HashKey: "userId",
		Indexes: []IndexSpec{{Name: IndexRole, HashKey: "role"}},
	},
	{
		Name:    TableSettings,
		HashKey: "settingsId",
		Indexes: []IndexSpec{{Name: IndexUserID, HashKey: "userId"}},
	},
	{
		Name:    TableProfiles,
		HashKey: "profileId",
		Indexes: []IndexSpec{{Name: IndexUserID, HashKey: "userId"}},
	},
	{
		Name:    TableContracts,
		HashKey: "contractId",
		Indexes: []IndexSpec{
			{Name: IndexPatronMonastic, HashKey: "patronId", RangeKey: "monasticId"},
			{Name: IndexMonasticID, HashKey: "monasticId"},
		},
	},
	{
		Name:    TablePosts,
		HashKey: "postId",
		Indexes: []IndexSpec{{Name: IndexMonasticID, HashKey: "monasticId", RangeKey: "createdAt"}},
	},
	{
		Name:    TableReceipts,
		HashKey: "receiptId",
		Indexes: []IndexSpec{{Name: IndexContractID, HashKey: "contractId"}},
	},
	{
		Name:    TableMedia,
		HashKey: "mediaId",
	},
	{
		Name:    TableActivities,
		HashKey: "activityId",
		Indexes: []IndexSpec{{Name: IndexUserID, HashKey: "userId", RangeKey: "createdAt"}},
	},
}

// LookupTable returns the spec for a logical table name
func LookupTable(name string) (TableSpec, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}
