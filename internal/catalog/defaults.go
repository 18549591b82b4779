package catalog

import "github.com/dshills/sowaudit/internal/schema"

// builtins is the default SOW rubric set, in execution order. Each prompt
// ends with the exact answer phrasing its grammar in package judgment expects.
var builtins = []schema.CheckDefinition{
	{
		ID:    "check1",
		Title: "Duplicate Headings Check",
		Prompt: `You are an expert document structure analyst. Identify ONLY genuine hierarchical headings in the document content, then check those headings for duplicates.

A genuine heading stands on its own line, introduces a new section or topic, and is at most 10 words long (excluding numbering). Ignore table cells, list items, sentences that are part of a paragraph, contact details, footnotes and citations.

Output Format:
- First, list the headings you identified, numbered.
- If duplicate headings (exact, case-sensitive match) exist, list each duplicated heading with "Count: N" where N is how many times it appears, then state "Total duplicates: N".
- If there are no duplicates, state clearly: "All identified headings are unique."`,
	},
	{
		ID:    "check2",
		Title: "Title Format Check",
		Prompt: `You are an expert document structure analyst. Identify the main title of the document, preferring the provided filename when it looks like a title (for example "SOW CustomerName - ProjectName.docx"), otherwise the most prominent first line of the content. Ignore paragraphs, tables, headers, footers and sub-headings.

The title must exactly follow the format "SOW [Customer] - [Project]": the literal, case-sensitive "SOW", one space, the customer name, a single space, a hyphen, a single space, and the project name.

Output Format:
- If the title strictly matches, respond with: "Yes, the title format is correct."
- Otherwise respond with: "No, the title format is incorrect." followed by the title you identified as Relevant text: "<title>".`,
	},
	{
		ID:    "check3",
		Title: "Language Check (English Only)",
		Prompt: `You are a language detection specialist. Scan the entire document for any words, phrases or sentences that are not English: non-Latin scripts, diacritics that are not part of common loanwords, or sentences written in another language. Common proper nouns and English loanwords are acceptable unless part of a non-English phrase.

Output Format:
- If any substantial non-English text is present, respond with "No," followed by a list of each non-English snippet, one per line starting with "- ".
- If the document is English only, respond with: "Yes"`,
	},
	{
		ID:    "check4",
		Title: "Role Breakdown Table Check",
		Prompt: `You are a document auditor. Determine whether the document contains a section or table that breaks down project roles (for example a heading such as "Role Breakdown", "Roles and Responsibilities" or "Staffing", or a table listing roles with responsibilities, hours or rates).

Output Format:
- If such a section or table exists, respond with: "Yes, a 'Role Breakdown' section or table is found."
- Otherwise respond with: "No, no 'Role Breakdown' section or table exists."`,
	},
	{
		ID:    "check5",
		Title: "Fees Breakdown Table Validation",
		Prompt: `You are a financial document auditor. Locate the "Fees Breakdown" section or table.

Condition 1: fees must be organized by milestones, not by individual deliverables.
Condition 2: milestone sub-totals must add up to the overall "Total Fees" or "Grand Total".

Output Format:
- If no Fees Breakdown section or table exists, respond with: "No Fees Breakdown section or table exists in the document."
- If both conditions hold, respond with: "Yes, all Fees Breakdown requirements are met."
- Otherwise respond with "No," and the failed conditions, for example: "No, Condition 1 failed – fees are based on deliverables, not milestones. Condition 2 failed – milestone totals do not clearly match the overall fees."`,
	},
	{
		ID:    "check6",
		Title: "Customer Name Usage Check",
		Prompt: `You are a document auditor. Infer the main title (from the filename first, otherwise from the first prominent line) in the form "SOW [Customer] - [Project]" and extract the text between "SOW " and the first " - " as the Customer Name.

Count every exact, case-sensitive, whole-word occurrence of the Customer Name in the document, including the one in the title.

Output Format:
1. Extracted Customer Name: <name>
2. Total Occurrences Found: <number>
3. Evaluation:
- If the count is exactly 2, state: "The count is correct."
- If the count is more than 2, state: "The count is incorrect. Total occurrences: <number>."
- If the count is 0 or 1, state: "The count is incorrect. It is missing from expected locations (e.g., 'Missing in title' or 'Missing in customer table/field')."`,
	},
	{
		ID:    "check7",
		Title: "Spelling, Grammar, & Formatting",
		Prompt: `You are a professional proofreader. Scan the whole document for spelling, grammar and punctuation errors under standard written English. Do not flag domain terminology or colloquialisms unless genuinely wrong. Quote the erroneous text as it appears; do not rewrite it.

Output Format:
- If any errors are found, respond with "No," followed by one line per error starting with "- ", for example:
  - Spelling error: 'recieve' (should be 'receive')
  - Grammar error: 'The team was go to the meeting.'
- If no errors are found, respond with: "Yes, no errors found in the document."`,
	},
	{
		ID:    "check8",
		Title: "SOW Start/End Date Check",
		Prompt: `You are a document auditor. Locate the "Start Date" and "End Date" of the SOW.

The Start Date must be stated relative to execution (for example "upon execution" or "the date of last signature") or be a valid calendar date that is not backdated. The End Date must be a valid, recognizable date (MM/DD/YYYY, YYYY-MM-DD or "January 1, 2025") after the Start Date.

Output Format:
- If both dates are present and valid, respond with: "Yes, both Start Date and End Date are correctly formatted."
- If either date fails validation or is missing, respond with: "No, the following date(s) are incorrect:" followed by the reasons (for example "Start Date is backdated", "End Date is missing").
- If no SOW dates exist at all, respond with: "No SOW dates found in the document."`,
	},
	{
		ID:    "check9",
		Title: "Bullet Points Quality Check",
		Prompt: `You are a technical editor. Identify genuine bullet points: lines starting with a bullet marker ("-", "*", "•") or list numbering that appear within a sequence of similar lines. Each bullet must begin with an action verb (for example "Develop", "Configure", "Deliver") and must not begin with an article, pronoun or noun phrase.

Output Format:
- If every bullet point begins with an action verb, respond with: "Yes, all bullet points use action verbs and are formatted correctly."
- Otherwise respond with "No," followed by each non-compliant bullet point exactly as it appears in the document, one per line starting with "- ".`,
	},
	{
		ID:    "check10",
		Title: "Instructional Text Removal Check",
		Prompt: `You are a document quality reviewer. Find template guidance that should have been removed before publication: bracketed placeholders such as "[Insert date]", lines beginning with "Note:", "Instructions:" or "TIP:", and sentences addressed to the author ("Describe the scope here", "Delete this section if not applicable").

Output Format:
- If any instructional text is found, respond with: "No, instructional text found." and list each snippet on its own line starting with "- ".
- If none is found, respond with: "Yes, all instructional text appears to be removed."`,
	},
	{
		ID:    "check11",
		Title: "Deliverable Date Check",
		Prompt: `You are a contract reviewer. Examine the deliverables section. Individual deliverables must not carry specific delivery dates (for example "Design document – due March 3, 2025"); timeframes belong to milestones or the overall schedule.

Output Format:
- If any deliverable has a specific date, respond with: "No, specific delivery dates were found on deliverables." and list each deliverable with its date on its own line starting with "- ".
- Otherwise respond with: "Yes, deliverables do not have specific delivery dates."`,
	},
	{
		ID:    "check12",
		Title: "Formatting Polish Check",
		Prompt: `You are a document formatting analyst. Font family and size cannot be verified from raw text, so judge only structural and emphasis patterns:
1. Bold text is used for headings and key terms, not randomly inside paragraphs.
2. All bulleted lists use a consistent marker style.

Output Format:
- If there are significant inconsistencies, respond with: "No, formatting inconsistencies were found." and a brief description of each.
- Otherwise respond with: "Yes, formatting appears polished and consistent."`,
	},
	{
		ID:    "check13",
		Title: "Date Cross-Reference Check (Section 2)",
		Prompt: `You are a document auditor. Compare the SOW "Start Date" and "End Date" with the timeframe described in "Section 2", "Project Timeframe" or an equivalent section (for example "a 3-month engagement" or "complete by Q4").

Output Format:
- If they are consistent, respond with: "Yes, SOW dates match the Section 2 timeframe."
- If they conflict, respond with: "No, SOW dates do not match the Section 2 timeframe." and explain the discrepancy.
- If the dates or the section cannot be found, respond with: "The check could not be completed." and say what is missing.`,
	},
	{
		ID:    "check14",
		Title: "Draft Status Check in Title",
		Prompt: `You are a document controller. Identify the main title from the filename or the first prominent line of the content and check whether it begins with the exact, case-sensitive string "[DRAFT]".

Output Format:
- If it does, respond with: "Yes, the title includes the [DRAFT] watermark."
- If it does not, respond with: "No, the title is missing the [DRAFT] watermark."`,
	},
	{
		ID:    "check15",
		Title: "Generic Customer Name Check (For Drafts)",
		Prompt: `You are a document controller reviewing a draft. The word "Customer" must be used as a placeholder everywhere a client name would appear, especially in the title; a real company or person's name must not have been entered yet.

Output Format:
- If "Customer" is used consistently as the placeholder, respond with: "Yes, the generic 'Customer' name is correctly used as a placeholder."
- If a specific name is used instead, respond with: "No, a specific customer name is used instead of the generic 'Customer' placeholder." followed by Relevant text: "<the name you found>".`,
	},
	{
		ID:    "check16",
		Title: "Special Handling Language Check",
		Prompt: `You are a compliance officer. Scan the document for clauses indicating special legal, privacy or regulatory handling:
- Confidentiality ("Confidential Information", "NDA")
- Data privacy ("GDPR", "CCPA", "PII", "Personally Identifiable Information")
- Healthcare ("HIPAA", "PHI", "Protected Health Information")
- Export controls ("Export Administration Regulations", "EAR")
- Data residency ("data must reside in", "data sovereignty")

Output Format:
- If any such language is present, respond with: "Yes, special handling language was found." and list each keyword or phrase on its own line starting with "- ".
- Otherwise respond with: "No, no special handling language was found."`,
	},
}

// Defaults returns a copy of the built-in catalog.
func Defaults() []schema.CheckDefinition {
	return clone(builtins)
}
