package device

// Selector catalog for the Google app's Discover surface and the Chrome
// share sheet. Resource IDs are stable across recent app versions.

const quicksearchID = "com.google.android.googlequicksearchbox:id/"

// Containers
var (
	SelGoogleApp = Selector{
		ClassName:  "android.widget.FrameLayout",
		ResourceID: quicksearchID + "googleapp_content",
	}
	SelSearchBox = Selector{
		ClassName:  "android.widget.FrameLayout",
		ResourceID: quicksearchID + "googleapp_facade_search_box_view",
	}
	SelNavigationBar = Selector{
		ClassName:  "android.widget.FrameLayout",
		ResourceID: quicksearchID + "googleapp_navigation_bar_container",
	}
	SelTopBar = Selector{
		ClassName:  "android.widget.FrameLayout",
		ResourceID: quicksearchID + "googleapp_topbar_container",
	}
	SelNewsFeed = Selector{
		ClassName:  "android.support.v7.widget.RecyclerView",
		ResourceID: quicksearchID + "googleapp_discover_recycler_view",
	}
	SelChromeToolbar = Selector{
		ClassName:  "android.widget.FrameLayout",
		ResourceID: "com.android.chrome:id/toolbar",
	}
)

// Account surface
var (
	SelAccountManagement = Selector{
		ResourceID: quicksearchID + "account_management_expandable_content",
	}
	SelAccountsLabel = Selector{
		ResourceID: quicksearchID + "og_bento_account_management_header_container",
	}
	SelAccounts = Selector{
		ResourceID: quicksearchID + "accounts",
	}
	SelAccountsInfo = Selector{
		ResourceID: quicksearchID + "og_secondary_account_information",
	}
	SelAccountsScroll = Selector{
		ResourceID: quicksearchID + "og_bento_main_scroll_content",
	}
)

// Buttons
var (
	SelMoreOptions = Selector{
		ClassName:   "android.view.ViewGroup",
		Description: "More options",
	}
	SelMoreStories = Selector{
		ClassName:   "android.view.ViewGroup",
		Description: "More stories",
	}
	SelShare     = Selector{DescriptionPrefix: "Share "}
	SelShareLink = Selector{DescriptionPrefix: "Share link"}
	SelHome      = Selector{
		ResourceID: quicksearchID + "googleapp_navigation_bar_discover",
	}
	SelSelectedAccount = Selector{
		ResourceID: quicksearchID + "googleapp_selected_account_disc",
	}
)

// Items
var (
	SelContentPreviewText = Selector{ResourceID: "android:id/content_preview_text"}
)

// Plain class queries
var (
	SelViewGroup = Selector{ClassName: "android.view.ViewGroup"}
	SelImageView = Selector{ClassName: "android.widget.ImageView"}
)
