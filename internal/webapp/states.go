package webapp

import "github.com/divawifi/wifi/internal/wifiscript"

// Page states. Each maps to the content file GetContent renders inside the
// page frame.
const (
	StateHome wifiscript.State = iota + 1
	StateMessage
	StateForbidden

	StateLoginForm
	StateLoginSuccess
	StateLoginFailed
	StateLogout

	StateAccountForm
	StateNewAccountForm
	StateNewAccountCreated
	StateNewAccountPending

	StateUserList
	StateUserEdit
	StateGroupList
	StateGroupView
	StateRegionList
	StateServerAdmin
	StateConsole

	StateInventory
	StateHyperlinks

	StateForgotPasswordForm
	StateForgotPasswordSent
	StateRecoverForm

	StateTOS
	StateNotify
)

var contentFiles = map[wifiscript.State]string{
	StateHome:      "splash.html",
	StateMessage:   "message.html",
	StateForbidden: "forbidden.html",

	StateLoginForm:    "loginform.html",
	StateLoginSuccess: "loginsuccess.html",
	StateLoginFailed:  "loginfailed.html",
	StateLogout:       "logout.html",

	StateAccountForm:       "accountform.html",
	StateNewAccountForm:    "newaccountform.html",
	StateNewAccountCreated: "newaccountcreated.html",
	StateNewAccountPending: "newaccountpending.html",

	StateUserList:    "admin/userlist.html",
	StateUserEdit:    "admin/useredit.html",
	StateGroupList:   "admin/grouplist.html",
	StateGroupView:   "admin/groupview.html",
	StateRegionList:  "admin/regionlist.html",
	StateServerAdmin: "admin/server.html",
	StateConsole:     "admin/console.html",

	StateInventory:  "inventory.html",
	StateHyperlinks: "hyperlinks.html",

	StateForgotPasswordForm: "forgotpasswordform.html",
	StateForgotPasswordSent: "forgotpasswordsent.html",
	StateRecoverForm:        "recoverform.html",

	StateTOS:    "tos.html",
	StateNotify: "notify.html",
}

// ContentFile returns the content template for s; unknown or unset states
// render the home page.
func ContentFile(s wifiscript.State) string {
	if f, ok := contentFiles[s]; ok {
		return f
	}
	return contentFiles[StateHome]
}
