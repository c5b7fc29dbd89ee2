package sync

// Schemas for every record type the desktop client synchronizes. These are
// pure declarations; the shared engine in engine.go is the only code path.

var usersSchema = EntitySchema{
	Table:      "usersdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "Fullname", "PhoneNumber", "PhoneNumberEmergency", "Gender",
		"FingerPrint", "BirthDate", "Code", "Removed", "CustomerApiId",
	},
	Nullable: []string{
		"Fullname", "PhoneNumber", "PhoneNumberEmergency", "Gender",
		"FingerPrint", "BirthDate", "Code", "Removed", "CustomerApiId",
	},
	Boolean:    []string{"Removed"},
	CallerKey:  true,
	SoftDelete: "Removed",
	OrderBy:    "Fullname",
}

var administratorsSchema = EntitySchema{
	Table:      "administratorsdesktop",
	PrimaryKey: "AdminId",
	Columns: []string{
		"AdminId", "Username", "Password", "Email", "PhoneNumber",
		"FingerPrint", "Manager", "Removed", "EmailConfirmed",
		"EmailConfirmedOn", "CustomerApiId",
	},
	Nullable: []string{"Email", "PhoneNumber", "FingerPrint", "EmailConfirmedOn", "CustomerApiId"},
	Boolean:  []string{"Manager", "Removed", "EmailConfirmed"},
	OrderBy:  "Username",
}

var appSettingsSchema = EntitySchema{
	Table:      "appsettingsdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "EnableLimitNotifications", "LimitDays",
		"EnablePostExpirationNotifications", "MessageTemplate",
		"CreatedAt", "UpdatedAt", "CustomerApiId",
	},
	Nullable: []string{
		"EnableLimitNotifications", "LimitDays",
		"EnablePostExpirationNotifications", "MessageTemplate",
		"CreatedAt", "UpdatedAt", "CustomerApiId",
	},
	Boolean:   []string{"EnableLimitNotifications", "EnablePostExpirationNotifications"},
	CallerKey: true,
	OrderBy:   "Id",
}

var attendancesSchema = EntitySchema{
	Table:      "attendancesdesktop",
	PrimaryKey: "AttendanceId",
	Columns: []string{
		"AttendanceId", "CheckIn", "Removed", "UserId", "Active", "CustomerApiId",
	},
	Nullable: []string{"CustomerApiId"},
	Boolean:  []string{"Removed", "Active"},
	OrderBy:  "CheckIn",
}

var barcodeLookupCacheSchema = EntitySchema{
	Table:      "barcodelookupcachedesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "Barcode", "Provider", "Found", "RawJson", "CachedAt", "CustomerApiId",
	},
	Nullable:  []string{"RawJson"},
	Boolean:   []string{"Found"},
	CallerKey: true,
	OrderBy:   "CachedAt",
}

var cashRegistersSchema = EntitySchema{
	Table:      "cashregisterdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "OpenedAt", "ClosedAt", "OpeningCash", "ClosingCash",
		"ExpectedCash", "CashDifference", "TotalSales", "TotalCardSales",
		"TotalTransferSales", "TotalCashSales", "OpenedBy", "ClosedBy",
		"Notes", "IsOpen", "CreatedOn", "IsDeleted", "CustomerApiId",
	},
	Nullable: []string{
		"ClosedAt", "ClosingCash", "ExpectedCash", "CashDifference",
		"TotalSales", "TotalCardSales", "TotalTransferSales",
		"TotalCashSales", "ClosedBy", "Notes",
	},
	Boolean:    []string{"IsOpen", "IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "OpenedAt",
}

var historyOperationsSchema = EntitySchema{
	Table:      "historyoperationsdesktop",
	PrimaryKey: "HistoryId",
	Columns: []string{
		"HistoryId", "Operation", "DatetimeOperation", "Removed", "AdminId", "CustomerApiId",
	},
	Nullable: []string{"CustomerApiId"},
	Boolean:  []string{"Removed"},
	OrderBy:  "DatetimeOperation",
}

var infoMySubscriptionSchema = EntitySchema{
	Table:      "infomysubscriptiondesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "CustomerId", "CustomerApiId", "SubscriptionId", "Token",
		"Trial", "UrlWhatsapp", "TokenWhatsapp",
	},
	Nullable: []string{
		"CustomerId", "CustomerApiId", "SubscriptionId", "Token",
		"Trial", "UrlWhatsapp", "TokenWhatsapp",
	},
	Boolean:   []string{"Trial"},
	CallerKey: true,
	OrderBy:   "Id",
}

var migrationsSchema = EntitySchema{
	Table:      "migrationsdesktop",
	PrimaryKey: "Id",
	Columns:    []string{"Id", "Code", "CustomerApiId"},
	Nullable:   []string{"Code"},
	CallerKey:  true,
	OrderBy:    "Code",
}

var productsSchema = EntitySchema{
	Table:      "productdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "Code", "Name", "NameSearch", "Description", "ImageUrl",
		"Active", "CreatedOn", "CreatedBy", "LastModifiedOn",
		"LastModifiedBy", "IsDeleted", "CustomerApiId",
	},
	Nullable: []string{
		"Code", "NameSearch", "Description", "ImageUrl",
		"LastModifiedOn", "LastModifiedBy",
	},
	Boolean:    []string{"Active", "IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "Name",
}

var productPricesSchema = EntitySchema{
	Table:      "productpricedesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "ProductId", "Amount", "StartDate", "Active", "CreatedOn",
		"CreatedBy", "LastModifiedOn", "LastModifiedBy", "IsDeleted",
		"CustomerApiId",
	},
	Nullable:   []string{"LastModifiedOn", "LastModifiedBy"},
	Boolean:    []string{"Active", "IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "StartDate",
}

var productStocksSchema = EntitySchema{
	Table:      "productstockdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "ProductId", "MovementType", "Quantity", "MovementDate",
		"Notes", "CreatedOn", "CreatedBy", "LastModifiedOn",
		"LastModifiedBy", "IsDeleted", "CustomerApiId",
	},
	Nullable:   []string{"Notes", "LastModifiedOn", "LastModifiedBy"},
	Boolean:    []string{"IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "MovementDate",
}

var saleTicketsSchema = EntitySchema{
	Table:      "saleticketdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "CashRegisterId", "Folio", "SaleDate", "SubtotalAmount",
		"DiscountAmount", "TaxAmount", "TotalAmount", "PaymentMethod",
		"PaymentReference", "PaidAmount", "ChangeAmount", "Notes",
		"Active", "CreatedOn", "CreatedBy", "LastModifiedOn",
		"LastModifiedBy", "CancelledOn", "CancelledBy",
		"CancellationReason", "IsDeleted", "CustomerApiId",
	},
	Nullable: []string{
		"CashRegisterId", "PaymentReference", "Notes", "LastModifiedOn",
		"LastModifiedBy", "CancelledOn", "CancelledBy", "CancellationReason",
	},
	Boolean:    []string{"Active", "IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "SaleDate",
}

var saleTicketItemsSchema = EntitySchema{
	Table:      "saleticketitemdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "SaleTicketId", "ProductId", "ProductCode", "ProductName",
		"UnitPrice", "Quantity", "LineSubtotal", "LineDiscount", "LineTax",
		"LineTotal", "CreatedOn", "CreatedBy", "LastModifiedOn",
		"LastModifiedBy", "IsDeleted", "SubscriptionId", "CustomerApiId",
	},
	Nullable: []string{
		"ProductId", "ProductCode", "ProductName", "LastModifiedOn",
		"LastModifiedBy", "SubscriptionId",
	},
	Boolean:    []string{"IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "CreatedOn",
}

var sendEmailsAdminSchema = EntitySchema{
	Table:      "sendemailsadmindesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "AdminId", "Email", "Code", "Type", "SendOn", "ExpiresOn",
		"Confirmed", "ConfirmedOn", "CustomerApiId",
	},
	Nullable: []string{
		"AdminId", "Email", "Code", "Type", "SendOn", "ExpiresOn",
		"Confirmed", "ConfirmedOn", "CustomerApiId",
	},
	Boolean:   []string{"Confirmed"},
	CallerKey: true,
	OrderBy:   "SendOn",
}

var sentMessagesSchema = EntitySchema{
	Table:      "sentmessagesdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "UserId", "PhoneNumber", "Message", "SentDay", "SentHour",
		"Successful", "ErrorMessage", "CustomerApiId",
	},
	Nullable: []string{
		"UserId", "PhoneNumber", "Message", "SentDay", "SentHour",
		"Successful", "ErrorMessage", "CustomerApiId",
	},
	Boolean:   []string{"Successful"},
	CallerKey: true,
	OrderBy:   "SentDay",
}

var subscriptionPeriodsSchema = EntitySchema{
	Table:      "subscriptionperioddesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "Name", "Days", "Price", "Active", "CreatedOn", "CreatedBy",
		"LastModifiedOn", "LastModifiedBy", "IsDeleted", "CustomerApiId",
	},
	Nullable:   []string{"CreatedBy", "LastModifiedOn", "LastModifiedBy"},
	Boolean:    []string{"Active", "IsDeleted"},
	CallerKey:  true,
	SoftDelete: "IsDeleted",
	OrderBy:    "Name",
}

var subscriptionsSchema = EntitySchema{
	Table:      "subscriptionsdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "StartDate", "EndingDate", "Removed", "UserId", "Payment",
		"Warning", "Finished", "Registered", "CustomerApiId",
	},
	Nullable: []string{
		"StartDate", "EndingDate", "Removed", "UserId", "Payment",
		"Warning", "Finished", "Registered", "CustomerApiId",
	},
	Boolean:    []string{"Removed", "Warning", "Finished", "Registered"},
	CallerKey:  true,
	SoftDelete: "Removed",
	OrderBy:    "EndingDate",
}

var syncStatusSchema = EntitySchema{
	Table:      "syncstatusdesktop",
	PrimaryKey: "Id",
	Columns: []string{
		"Id", "InitialSyncCompleted", "CompletedAt", "UpdatedAt", "CustomerApiId",
	},
	Nullable:  []string{"CompletedAt", "UpdatedAt"},
	Boolean:   []string{"InitialSyncCompleted"},
	CallerKey: true,
	OrderBy:   "UpdatedAt",
}

var whatsAppSchema = EntitySchema{
	Table:      "whatsappdesktop",
	PrimaryKey: "Id",
	Columns:    []string{"Id", "SubscriptionId", "Warning", "Finalized", "CustomerApiId"},
	Nullable:   []string{"SubscriptionId", "Warning", "Finalized", "CustomerApiId"},
	Boolean:    []string{"Warning", "Finalized"},
	CallerKey:  true,
	OrderBy:    "Id",
}

// NewDesktopRegistry builds the full category registry the desktop client
// synchronizes against. Registration order is the pull fan-out order.
func NewDesktopRegistry(db Database) *Registry {
	r := NewRegistry()
	r.Register("users", NewEngine(db, usersSchema))
	r.Register("administrators", NewEngine(db, administratorsSchema))
	r.Register("appSettings", NewEngine(db, appSettingsSchema))
	r.Register("attendances", NewEngine(db, attendancesSchema))
	r.Register("barcodeLookupCache", NewEngine(db, barcodeLookupCacheSchema))
	r.Register("cashRegisters", NewEngine(db, cashRegistersSchema))
	r.Register("historyOperations", NewEngine(db, historyOperationsSchema))
	r.Register("infoMySubscription", NewEngine(db, infoMySubscriptionSchema))
	r.Register("migrations", NewEngine(db, migrationsSchema))
	r.Register("products", NewEngine(db, productsSchema))
	r.Register("productPrices", NewEngine(db, productPricesSchema))
	r.Register("productStocks", NewEngine(db, productStocksSchema))
	r.Register("saleTickets", NewEngine(db, saleTicketsSchema))
	r.Register("saleTicketItems", NewEngine(db, saleTicketItemsSchema))
	r.Register("sendEmailsAdmin", NewEngine(db, sendEmailsAdminSchema))
	r.Register("sentMessages", NewEngine(db, sentMessagesSchema))
	r.Register("subscriptionPeriods", NewEngine(db, subscriptionPeriodsSchema))
	r.Register("subscriptions", NewEngine(db, subscriptionsSchema))
	r.Register("syncStatus", NewEngine(db, syncStatusSchema))
	r.Register("whatsApp", NewEngine(db, whatsAppSchema))
	return r
}
