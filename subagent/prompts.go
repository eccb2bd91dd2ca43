package subagent

// extractionPrompt asks the oracle to fill the domain record from the
// supervisor's brief. The brief is the sub-agent's sole conversational input;
// the prior record carries what earlier turns already collected.
const extractionPrompt = `You are the %s for the Inbound Logistics system.
Today's date is %s.

This is the brief handed to you by the Supervisor:
<Brief>
%s
</Brief>

This is the record accumulated from earlier turns (empty if none):
<PriorRecord>
%s
</PriorRecord>

This is the most recent message from the user:
<LatestUserMessage>
%s
</LatestUserMessage>

The record schema for this domain, with accepted synonyms and seeded values:
<Fields>
%s
</Fields>

Mandatory fields: %s
Optional fields: %s

Your tasks:
1. Extract field values from the brief into "record", using the canonical field names. Resolve synonyms to the canonical name. A field not present in the brief or the prior record must be null; never guess a value.
2. Carry forward prior record values unless the brief explicitly supplies a new value for the same field.
3. Report "missing_mandatory_fields" and "missing_optional_fields" for fields still without a value.
4. Set "ask_for_optional_fields" to false only when no optional fields are missing or the user explicitly asked to skip or defer the missing optional fields. Otherwise leave it true.
5. Set "needs_user_confirmation" to false only when no mandatory fields are missing AND the latest user message contains explicit confirmation language (for example "confirm", "yes, go ahead", "looks good"). Otherwise leave it true.`

// Message templates rendered for the user at each terminal step.

const missingMandatoryTemplate = `The %s cannot proceed yet. The following mandatory fields are still missing:

%s
Please provide them to continue.`

const missingOptionalTemplate = `The %s has everything it strictly needs, but these optional fields are still missing:

%s
You can provide them now, ask me to skip them, or defer them until later.`

const confirmationTemplate = `Please review the %s record before I commit it:

%s
Reply with a confirmation (for example "confirm") to commit, or send corrections.`

const commitSuccessTemplate = `The %s record has been committed. Reference: %s. %s`

const commitFailureTemplate = `The %s record could not be committed: %s
Your data is unchanged; confirm again to retry.`
