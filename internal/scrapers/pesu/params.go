package pesu

import (
	"maps"
	"strconv"

	"pesuacademy/internal/components/chrono"
)

// PageParams identifies a page type to the portal's page dispatcher.
type PageParams struct {
	MenuID         string
	ControllerMode string
	ActionType     string
}

var (
	AnnouncementsPage = PageParams{MenuID: "667", ControllerMode: "6411", ActionType: "5"}
	AttendancePage    = PageParams{MenuID: "660", ControllerMode: "6407", ActionType: "8"}
	CoursesPage       = PageParams{MenuID: "653", ControllerMode: "6403", ActionType: "38"}
	CourseDetailPage  = PageParams{MenuID: "653", ControllerMode: "6403", ActionType: "42"}
	UnitDetailPage    = PageParams{MenuID: "653", ControllerMode: "6403", ActionType: "43"}
	MaterialLinksPage = PageParams{MenuID: "653", ControllerMode: "6403", ActionType: "60"}
	ProfilePage       = PageParams{MenuID: "670", ControllerMode: "6414", ActionType: "5"}
	ResultsPage       = PageParams{MenuID: "652", ControllerMode: "6402", ActionType: "9"}
	SeatingInfoPage   = PageParams{MenuID: "655", ControllerMode: "6404", ActionType: "5"}
)

// Material type ids understood by the material links page.
const (
	MaterialSlides = "2"
	MaterialNotes  = "3"
)

const (
	pagePath      = "/s/studentProfilePESUAdmin"
	semestersPath = "/a/studentProfilePESU/getStudentSemestersPESU"
)

// cacheBuster is the value of the `_` query parameter the portal's own
// frontend sends with every request.
func cacheBuster(clock chrono.API) string {
	return strconv.FormatInt(clock.Now().UnixMilli(), 10)
}

// BuildParams returns the query parameters for a page request, extras cannot
// override the page identifiers or the cache buster.
func BuildParams(clock chrono.API, page PageParams, extras map[string]string) map[string]string {
	params := make(map[string]string, len(extras)+4)
	maps.Copy(params, extras)
	params["menuId"] = page.MenuID
	params["controllerMode"] = page.ControllerMode
	params["actionType"] = page.ActionType
	params["_"] = cacheBuster(clock)
	return params
}
