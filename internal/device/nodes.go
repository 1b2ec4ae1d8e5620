package device

// Nodes is the per-worker selector context: every UI handle the scanner
// needs, resolved lazily off one Device. Constructed once per worker
// and passed to every component that queries the UI; there is no global
// instance.
type Nodes struct {
	// Containers
	App           Element
	SearchBox     Element
	NewsFeed      Element
	NavigationBar Element
	TopBar        Element
	ChromeToolbar Element

	// Buttons
	Home            Element
	Share           Element
	MoreOptions     Element
	MoreStories     Element
	ShareLink       Element
	SelectedAccount Element

	// Account surface
	AccountManagement Element
	AccountsLabel     Element
	Accounts          Element
	AccountsScroll    Element

	// Items
	ContentPreviewText Element
}

// NewNodes resolves the selector context for a device. Child handles
// are scoped under their containers the way the app lays them out, so a
// stale overlay elsewhere on screen cannot shadow them.
func NewNodes(d Device) *Nodes {
	app := d.Find(SelGoogleApp)
	toolbar := d.Find(SelChromeToolbar)
	navigationBar := app.Child(SelNavigationBar)
	topBar := app.Child(SelTopBar)
	newsFeed := app.Child(SelNewsFeed)

	return &Nodes{
		App:           app,
		SearchBox:     app.Child(SelSearchBox),
		NewsFeed:      newsFeed,
		NavigationBar: navigationBar,
		TopBar:        topBar,
		ChromeToolbar: toolbar,

		Home:            navigationBar.Child(SelHome),
		Share:           newsFeed.Child(SelShare),
		MoreOptions:     newsFeed.Child(SelMoreOptions),
		MoreStories:     newsFeed.Child(SelMoreStories),
		ShareLink:       toolbar.Child(SelShareLink),
		SelectedAccount: topBar.Child(SelSelectedAccount),

		AccountManagement: d.Find(SelAccountManagement),
		AccountsLabel:     d.Find(SelAccountsLabel),
		Accounts:          d.Find(SelAccounts),
		AccountsScroll:    d.Find(SelAccountsScroll),

		ContentPreviewText: d.Find(SelContentPreviewText),
	}
}
