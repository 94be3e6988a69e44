// Package udise implements the registry adapter contracts against the
// UDISE+ student portal with a rod-driven Chrome session. Everything here
// is UI plumbing; outcome classification lives in internal/reconcile.
package udise

import "autoedu/internal/browser"

// Login page.
var (
	selUsername     = browser.CSS("input.form-control")
	selPassword     = browser.CSS("#password-field")
	selCaptcha      = browser.CSS("#captcha")
	selLoginSubmit  = browser.CSS("#submit-btn")
	selLoginError   = browser.XPath("//div[@role='alert']/div/span")
	selAcademicYear = browser.XPath("//ul/li/div/div[2]/p")
	selSchoolInfoOK = browser.XPath("//div/div/div/div[3]/button")
	selLoggedSchool = browser.XPath("//label[contains(normalize-space(text()), 'School Name')]/following::span[1]")
)

// Student import module.
var (
	selMovementProgression = browser.XPath("//span[contains(normalize-space(text()), 'Student Movement and Progression')]/ancestor::button")
	selImportOption        = browser.XPath(`//*[@id="flush-collapseOne2"]/div/ul/li[2]/span`)
	selInStateImport       = browser.XPath("//ul/li[1]/div/button")
	selImportPEN           = browser.CSS("#mat-input-0")
	selImportDOB           = browser.CSS("#mat-input-1")
	selImportGo            = browser.XPath("//div[@class='col-lg-8']/ul/li[3]/button")
	selDobMismatchMsg      = browser.XPath("//div[@role='dialog']/h2")
	selDobMismatchOK       = browser.XPath("//div[@class='swal2-actions']/button[1]")
	selStudentStatus       = browser.XPath("//*[contains(@class, 'greenBack') or contains(@class, 'redBack')]")
	selCurrentSchool       = browser.XPath("//span[contains(normalize-space(text()), 'School Name')]/following-sibling::span")
	selImportClass         = browser.XPath("//ul[@class='existingSchool1']/li[1]/div/select")
	selImportSection       = browser.XPath("//ul[@class='existingSchool1']/li[2]/div/ul/li[1]/select")
	selImportDOA           = browser.XPath("//label[contains(text(), 'Date of Admission')]/following::input[contains(@placeholder, 'DD/MM')][1]")
	selImportButton        = browser.XPath("//ul[@class='existingSchool1']/li[4]/button")
	selImportConfirm       = browser.XPath("//div[@class='swal2-actions']/button[3]")
	selImportOK            = browser.XPath("//div[@class='swal2-actions']/button[1]")
	selImportMessage       = browser.XPath("//h2[@id='swal2-title']")
)

// Get PEN & DOB search dialog.
var (
	selSearchOpen    = browser.XPath("//button[contains(normalize-space(text()), 'Get PEN')]")
	selSearchAadhaar = browser.XPath("//input[@placeholder='Enter Aadhaar Number']")
	selSearchYOB     = browser.XPath("//input[@placeholder='Enter Year of Birth']")
	selSearchButton  = browser.XPath("//button[contains(normalize-space(text()), 'Search')]")
	selSearchError   = browser.XPath("//div[contains(@class, 'alert-danger')]")
	selSearchPEN     = browser.XPath("//td[@data-label='PEN']")
	selSearchDOB     = browser.XPath("//td[@data-label='Date of Birth']")
	selSearchClose   = browser.XPath("//button[contains(normalize-space(text()), 'Close')]")
)

// Release request module.
var (
	selReleaseManagement = browser.XPath("//span[contains(normalize-space(text()), 'Release Request Management')]/ancestor::li")
	selInStateRelease    = browser.XPath("//h5[contains(normalize-space(text()), 'Within State')]/following-sibling::div/button")
	selGenerateRelease   = browser.XPath("//*[contains(normalize-space(text()), 'Generate Student Release Request')]")
	selReleasePEN        = browser.XPath("//input[@placeholder='Enter PEN']")
	selReleaseDOB        = browser.XPath("//label[contains(normalize-space(.), 'Date of Birth')]/following-sibling::div//input[@placeholder='DD/MM/YYYY']")
	selGetDetails        = browser.XPath("//button[contains(normalize-space(text()), 'Get Details')]")
	selReleaseName       = browser.XPath("//label[contains(normalize-space(text()), 'Student Name')]/following-sibling::span")
	selReleaseSection    = browser.XPath("//label[contains(normalize-space(text()), 'Section')]/following-sibling::select")
	selReleaseDOA        = browser.XPath("//label[contains(text(), 'Date of Admission')]/following::input[contains(@placeholder, 'DD/MM')][1]")
	selReleaseGenerate   = browser.XPath("//button[contains(normalize-space(text()), 'Generate')]")
	selReleaseStatus     = browser.XPath("//div[@role='dialog']/h2")
	selReleaseOK         = browser.XPath("//button[contains(normalize-space(text()), 'Okay')]")
)

// Section shift module.
var (
	selSectionShiftOption = browser.XPath("//span[contains(normalize-space(text()), 'Class / Section Shift')]/ancestor::button")
	selSectionClass       = browser.XPath("//label[contains(normalize-space(text()), 'Class')]/following-sibling::select")
	selSectionGo          = browser.XPath("//button[contains(normalize-space(text()), 'Go')]")
	selStudentCount       = browser.XPath("//div[contains(@class, 'dataTables_info')]")
	selSectionTableRow    = browser.XPath("//table[contains(@class, 'section-shift')]/tbody/tr")
	selSectionNextPage    = browser.XPath("//a[contains(normalize-space(text()), 'Next')]")
	selShiftMessage       = browser.XPath("//div[@role='dialog']/h2")
	selShiftOK            = browser.XPath("//div[@class='swal2-actions']/button[1]")
)

// Relative selectors inside one section-table row.
const (
	rowPENXPath      = ".//td[2]"
	rowSectionXPath  = ".//td[5]"
	rowSectionSelect = ".//td[6]//select"
	rowShiftButton   = ".//td[7]//button"
)
