package models

// Status is a row of the statuses reference table.
type Status struct {
	StatusID    int    `json:"Status_ID" db:"status_id"`
	StatusLabel string `json:"Status_Label" db:"status_label"`
}

// Site is a row of the sites reference table.
type Site struct {
	SiteID    int64  `json:"Site_ID" db:"site_id"`
	SiteLabel string `json:"Site_Label" db:"site_label"`
}

// Category is a row of the ticket_categories reference table.
type Category struct {
	CategoryID    int64  `json:"Category_ID" db:"category_id"`
	CategoryLabel string `json:"Category_Label" db:"category_label"`
}

// Asset is a row of the assets reference table.
type Asset struct {
	AssetID    int64  `json:"Asset_ID" db:"asset_id"`
	AssetLabel string `json:"Asset_Label" db:"asset_label"`
	SiteID     *int64 `json:"Site_ID,omitempty" db:"site_id"`
}

// Vendor is a row of the vendors reference table.
type Vendor struct {
	VendorID   int64  `json:"Vendor_ID" db:"vendor_id"`
	VendorName string `json:"Vendor_Name" db:"vendor_name"`
}

// ReferenceData bundles every lookup table for the reference-data endpoints.
type ReferenceData struct {
	Statuses   []Status   `json:"statuses"`
	Sites      []Site     `json:"sites"`
	Categories []Category `json:"categories"`
	Assets     []Asset    `json:"assets"`
	Vendors    []Vendor   `json:"vendors"`
}
